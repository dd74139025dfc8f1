// Package config handles Wren configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults for the agent loop budgets. MaxPromptChars assumes ~4
// chars per token and leaves room for the model response.
const (
	DefaultMaxToolRounds  = 10
	DefaultMaxPromptChars = 500_000
	DefaultTruncateChars  = 2000
	DefaultMaxMessages    = 100
	DefaultSystemPrompt   = "You are a helpful assistant."
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./wren.yaml, ~/.config/wren/wren.yaml, /etc/wren/wren.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"wren.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "wren", "wren.yaml"))
	}

	paths = append(paths, "/etc/wren/wren.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise, searches DefaultSearchPaths and returns the first
// that exists.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Wren configuration.
type Config struct {
	StateDir string         `yaml:"state_dir"`
	LogLevel string         `yaml:"log_level"`
	Models   ModelsConfig   `yaml:"models"`
	Agent    AgentConfig    `yaml:"agent"`
	Tools    ToolsConfig    `yaml:"tools"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Telegram TelegramConfig `yaml:"telegram"`
	Discord  DiscordConfig  `yaml:"discord"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// ModelsConfig defines the model backend settings.
type ModelsConfig struct {
	// Default is the model identifier used for every turn. Required:
	// its absence is a fatal configuration error.
	Default      string `yaml:"default"`
	OllamaURL    string `yaml:"ollama_url"`
	AnthropicKey string `yaml:"anthropic_api_key"`
}

// AgentConfig bounds the orchestration loop.
type AgentConfig struct {
	// MaxToolRounds caps tool-call rounds per turn.
	MaxToolRounds int `yaml:"max_tool_rounds"`
	// MaxPromptChars caps the assembled prompt length.
	MaxPromptChars int `yaml:"max_prompt_chars"`
	// TruncateChars caps tool-result content in prompts.
	TruncateChars int `yaml:"truncate_chars"`
	// MaxMessages caps retained history before oldest-first eviction.
	// Zero disables the cap.
	MaxMessages int `yaml:"max_messages"`
	// SystemPrompt overrides the default base instruction text. A
	// SYSTEM_PROMPT.md file in the state directory takes precedence
	// over both.
	SystemPrompt string `yaml:"system_prompt"`
}

// ToolsConfig governs tool dispatch.
type ToolsConfig struct {
	// Allowed lists the component names the model may invoke.
	Allowed []string `yaml:"allowed"`
}

// ArchiveConfig defines the optional SQLite turn archive.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // defaults to <state_dir>/archive.db
}

// AccessConfig is the per-gateway inbound filter: "disabled" (drop
// everything, the default), "public" (accept everyone), or
// "allowlist" (accept only AllowedSenders).
type AccessConfig struct {
	Mode           string   `yaml:"mode"`
	AllowedSenders []string `yaml:"allowed_senders"`
}

// TelegramConfig defines the Telegram gateway settings.
type TelegramConfig struct {
	Enabled bool         `yaml:"enabled"`
	Token   string       `yaml:"token"`
	Access  AccessConfig `yaml:"access"`
}

// DiscordConfig defines the Discord gateway settings.
type DiscordConfig struct {
	Enabled bool         `yaml:"enabled"`
	Token   string       `yaml:"token"`
	Access  AccessConfig `yaml:"access"`
}

// MQTTConfig defines the MQTT gateway settings.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"` // e.g. mqtt://host:1883
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// InTopic receives user utterances; OutTopic carries replies.
	InTopic  string       `yaml:"in_topic"`
	OutTopic string       `yaml:"out_topic"`
	Access   AccessConfig `yaml:"access"`
}

// Load reads configuration from a YAML file, expands environment
// variables in its contents, applies WREN_* environment overrides,
// and fills defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

// Default returns a configuration with loop defaults filled in and no
// model selected.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxToolRounds:  DefaultMaxToolRounds,
			MaxPromptChars: DefaultMaxPromptChars,
			TruncateChars:  DefaultTruncateChars,
			MaxMessages:    DefaultMaxMessages,
		},
	}
}

// applyEnv overlays WREN_* environment variables onto the config.
// Environment wins over file values so deployments can override
// without editing the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("WREN_MODEL"); v != "" {
		c.Models.Default = v
	}
	if v := os.Getenv("WREN_STATE_DIR"); v != "" {
		c.StateDir = v
	}
	if v := os.Getenv("WREN_SYSTEM_PROMPT"); v != "" {
		c.Agent.SystemPrompt = v
	}
	if v := os.Getenv("WREN_MAX_TOOL_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.MaxToolRounds = n
		}
	}
	if v := os.Getenv("WREN_MAX_PROMPT_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Agent.MaxPromptChars = n
		}
	}
	if v := os.Getenv("WREN_TOOLS"); v != "" {
		c.Tools.Allowed = splitList(v)
	}
}

// fillDefaults replaces zero values with defaults after file and env
// merging.
func (c *Config) fillDefaults() {
	if c.Agent.MaxToolRounds <= 0 {
		c.Agent.MaxToolRounds = DefaultMaxToolRounds
	}
	if c.Agent.MaxPromptChars <= 0 {
		c.Agent.MaxPromptChars = DefaultMaxPromptChars
	}
	if c.Agent.TruncateChars <= 0 {
		c.Agent.TruncateChars = DefaultTruncateChars
	}
	if c.Agent.MaxMessages < 0 {
		c.Agent.MaxMessages = DefaultMaxMessages
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		c.Archive.Path = filepath.Join(c.StateDir, "archive.db")
	}
}

// Validate checks settings whose absence is fatal for every turn.
func (c *Config) Validate() error {
	if c.Models.Default == "" {
		return fmt.Errorf("models.default (or WREN_MODEL) is required")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir (or WREN_STATE_DIR) is required")
	}
	return nil
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
