package discord

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/wrenlabs/wren/internal/events"
	"github.com/wrenlabs/wren/internal/gateway"
)

// handleTimeout bounds one inbound message end to end.
const handleTimeout = 5 * time.Minute

// Bridge routes mentioned messages through the agent and replies in
// the originating channel.
type Bridge struct {
	rest    *RestClient
	gateway *Gateway
	agent   gateway.Converser
	access  *gateway.AccessPolicy
	bus     *events.Bus
	logger  *slog.Logger
}

// NewBridge creates a Discord bridge for the given bot token.
func NewBridge(token string, agent gateway.Converser, access *gateway.AccessPolicy, bus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{
		rest:   NewRestClient(token, logger),
		agent:  agent,
		access: access,
		bus:    bus,
		logger: logger.With("gateway", "discord"),
	}
	b.gateway = NewGateway(token, b.onMessage, logger)
	return b
}

// Start serves the gateway session until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	b.logger.Info("discord bridge started")
	return b.gateway.Run(ctx)
}

// onMessage handles one MESSAGE_CREATE end to end.
func (b *Bridge) onMessage(ctx context.Context, selfID string, msg MessageCreate) {
	input, ok := b.shouldHandle(selfID, msg)
	if !ok {
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	response, err := b.agent.Converse(handleCtx, input)
	if err != nil {
		b.logger.Error("agent turn failed", "error", err)
		return
	}
	if response == "" {
		return
	}
	if err := b.rest.SendMessage(handleCtx, msg.ChannelID, response); err != nil {
		b.logger.Error("reply send failed", "channel_id", msg.ChannelID, "error", err)
	}
}

// shouldHandle applies the gate: not from self or a bot, the bot must
// be mentioned, and the author must pass the access policy. Returns
// the message text with the mention stripped.
func (b *Bridge) shouldHandle(selfID string, msg MessageCreate) (string, bool) {
	if msg.Author.Bot || (selfID != "" && msg.Author.ID == selfID) {
		return "", false
	}

	// Mentions arrive as <@id>, or <@!id> for nickname mentions.
	mention := "<@" + selfID + ">"
	nickMention := "<@!" + selfID + ">"
	if selfID == "" || !(strings.Contains(msg.Content, mention) || strings.Contains(msg.Content, nickMention)) {
		return "", false
	}

	b.bus.Emit(events.SourceDiscord, events.KindMessageReceived, map[string]any{
		"sender":      msg.Author.ID,
		"message_len": len(msg.Content),
	})

	if !b.access.Allow(msg.Author.ID) && !(msg.Author.Username != "" && b.access.Allow(msg.Author.Username)) {
		b.logger.Warn("sender not allowed", "sender", msg.Author.ID, "username", msg.Author.Username)
		return "", false
	}

	input := strings.ReplaceAll(msg.Content, nickMention, "")
	input = strings.ReplaceAll(input, mention, "")
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	return input, true
}
