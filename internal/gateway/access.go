// Package gateway holds pieces shared by the chat-platform bridges:
// the inbound sender access policy.
package gateway

import (
	"fmt"
	"strings"

	"github.com/wrenlabs/wren/internal/config"
)

// AccessMode selects how a gateway filters inbound senders.
type AccessMode int

const (
	// Disabled drops every inbound message.
	Disabled AccessMode = iota
	// Public accepts every sender.
	Public
	// AllowList accepts only explicitly listed sender ids.
	AllowList
)

// AccessPolicy decides whether a sender may reach the agent. The
// policy is an explicit value constructed once at startup; gateways
// check it before any model or tool work happens.
type AccessPolicy struct {
	mode    AccessMode
	allowed map[string]bool
}

// NewAccessPolicy builds a policy from configuration. An unknown mode
// is an error rather than a silent fallback: a typo in an access
// setting must not open a gateway to the public.
func NewAccessPolicy(cfg config.AccessConfig) (*AccessPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", "disabled":
		return &AccessPolicy{mode: Disabled}, nil
	case "public":
		return &AccessPolicy{mode: Public}, nil
	case "allowlist":
		allowed := make(map[string]bool, len(cfg.AllowedSenders))
		for _, s := range cfg.AllowedSenders {
			s = strings.TrimSpace(s)
			if s != "" {
				allowed[s] = true
			}
		}
		return &AccessPolicy{mode: AllowList, allowed: allowed}, nil
	default:
		return nil, fmt.Errorf("unknown access mode %q", cfg.Mode)
	}
}

// Allow reports whether the sender may reach the agent.
func (p *AccessPolicy) Allow(sender string) bool {
	switch p.mode {
	case Public:
		return true
	case AllowList:
		return p.allowed[sender]
	default:
		return false
	}
}

// Mode returns the policy's mode.
func (p *AccessPolicy) Mode() AccessMode {
	return p.mode
}
