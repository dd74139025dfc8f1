// Wren is a conversational agent with persistent memory and tool use.
//
// It runs one conversation against a configured model backend (Ollama
// or Anthropic), persists history in a state directory, and optionally
// bridges the conversation onto Telegram, Discord, or MQTT.
//
// Usage:
//
//	wren                       Interactive REPL on stdin
//	wren -once "question"      Run a single turn and exit
//	wren -config wren.yaml     Use an explicit config file
//	wren -version              Print version and build information
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/wrenlabs/wren/internal/agent"
	"github.com/wrenlabs/wren/internal/archive"
	"github.com/wrenlabs/wren/internal/buildinfo"
	"github.com/wrenlabs/wren/internal/config"
	"github.com/wrenlabs/wren/internal/conversation"
	"github.com/wrenlabs/wren/internal/discord"
	"github.com/wrenlabs/wren/internal/events"
	"github.com/wrenlabs/wren/internal/fetch"
	"github.com/wrenlabs/wren/internal/gateway"
	"github.com/wrenlabs/wren/internal/llm"
	"github.com/wrenlabs/wren/internal/memory"
	"github.com/wrenlabs/wren/internal/mqtt"
	"github.com/wrenlabs/wren/internal/prompt"
	"github.com/wrenlabs/wren/internal/skills"
	"github.com/wrenlabs/wren/internal/soul"
	"github.com/wrenlabs/wren/internal/telegram"
	"github.com/wrenlabs/wren/internal/tools"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point; main only wires OS-level dependencies
// so the lifecycle stays testable.
func run(ctx context.Context, stdin io.Reader, stdout io.Writer, args []string) error {
	fs := flag.NewFlagSet("wren", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	stateDir := fs.String("state", "", "state directory override")
	model := fs.String("model", "", "model identifier override")
	logLevel := fs.String("log-level", "", "log level override (trace, debug, info, warn, error)")
	once := fs.String("once", "", "run a single turn with this message and exit")
	version := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *version {
		fmt.Fprintln(stdout, buildinfo.String())
		return nil
	}

	// A .env file is a convenience for local development; its absence
	// is normal.
	_ = godotenv.Load()

	cfgPath, err := config.FindConfig(*configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if *stateDir != "" {
		cfg.StateDir = *stateDir
	}
	if *model != "" {
		cfg.Models.Default = *model
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		level, err = config.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
	slog.SetDefault(logger)
	logger.Info("wren starting",
		"version", buildinfo.Version,
		"config", cfgPath,
		"state_dir", cfg.StateDir,
		"model", cfg.Models.Default,
	)

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	loop, bus, cleanup, err := buildAgent(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	startGateways(ctx, cfg, loop, bus, logger)

	if *once != "" {
		response, err := loop.Converse(ctx, *once)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, response)
		return nil
	}

	return repl(ctx, stdin, stdout, loop)
}

// buildAgent constructs the full collaborator graph around the loop.
func buildAgent(cfg *config.Config, logger *slog.Logger) (*agent.Loop, *events.Bus, func(), error) {
	bus := events.New()

	memStore := memory.NewStore(cfg.StateDir, logger)
	memProvider := memory.NewProvider(memStore)
	soulStore := soul.NewStore(cfg.StateDir)
	skillStore := skills.NewStore(cfg.StateDir)

	registry := tools.NewRegistry(cfg.Tools.Allowed, logger)
	registry.Register(memProvider)
	registry.Register(soul.NewProvider(soulStore))
	registry.Register(skills.NewProvider(skillStore))
	registry.Register(fetch.NewProvider(fetch.New()))

	multi := llm.NewMultiClient(llm.NewOllamaClient(cfg.Models.OllamaURL, logger))
	if cfg.Models.AnthropicKey != "" {
		multi.AddProvider("anthropic", llm.NewAnthropicClient(cfg.Models.AnthropicKey, logger))
	}

	cleanup := func() {}
	var recorder agent.Recorder
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path, logger)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open archive: %w", err)
		}
		recorder = store
		cleanup = func() { store.Close() }
	}

	loop := agent.NewLoop(agent.Params{
		Store:    conversation.NewStore(cfg.StateDir, logger),
		Builder:  prompt.NewBuilder(cfg.Agent.MaxPromptChars, cfg.Agent.TruncateChars),
		Registry: registry,
		LLM:      multi,
		Assembler: &agent.Assembler{
			StateDir:     cfg.StateDir,
			SystemPrompt: cfg.Agent.SystemPrompt,
			Registry:     registry,
			Soul:         soulStore,
			Skills:       skillStore,
			Memory:       memProvider,
			Logger:       logger,
		},
		Bus:           bus,
		Recorder:      recorder,
		Model:         cfg.Models.Default,
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		MaxMessages:   cfg.Agent.MaxMessages,
		Logger:        logger,
	})
	return loop, bus, cleanup, nil
}

// startGateways launches the enabled chat bridges. A gateway that
// fails to start logs the error; the core REPL keeps working.
func startGateways(ctx context.Context, cfg *config.Config, loop *agent.Loop, bus *events.Bus, logger *slog.Logger) {
	if cfg.Telegram.Enabled {
		access, err := gateway.NewAccessPolicy(cfg.Telegram.Access)
		if err != nil {
			logger.Error("telegram access config invalid", "error", err)
		} else {
			bridge := telegram.NewBridge(telegram.NewClient(cfg.Telegram.Token, logger), loop, access, bus, logger)
			go func() {
				if err := bridge.Start(ctx); err != nil {
					logger.Error("telegram bridge failed", "error", err)
				}
			}()
		}
	}

	if cfg.Discord.Enabled {
		access, err := gateway.NewAccessPolicy(cfg.Discord.Access)
		if err != nil {
			logger.Error("discord access config invalid", "error", err)
		} else {
			bridge := discord.NewBridge(cfg.Discord.Token, loop, access, bus, logger)
			go func() {
				if err := bridge.Start(ctx); err != nil {
					logger.Error("discord bridge failed", "error", err)
				}
			}()
		}
	}

	if cfg.MQTT.Enabled {
		access, err := gateway.NewAccessPolicy(cfg.MQTT.Access)
		if err != nil {
			logger.Error("mqtt access config invalid", "error", err)
		} else {
			bridge := mqtt.New(cfg.MQTT, loop, access, bus, logger)
			go func() {
				if err := bridge.Start(ctx); err != nil {
					logger.Error("mqtt bridge failed", "error", err)
				}
			}()
		}
	}
}

// repl reads lines from stdin and prints the agent's answers until
// EOF or cancellation.
func repl(ctx context.Context, stdin io.Reader, stdout io.Writer, loop *agent.Loop) error {
	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprint(stdout, "> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			fmt.Fprint(stdout, "> ")
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		response, err := loop.Converse(ctx, input)
		if err != nil {
			fmt.Fprintf(stdout, "error: %s\n", err)
		} else {
			fmt.Fprintln(stdout, response)
		}
		fmt.Fprint(stdout, "> ")
	}
	return scanner.Err()
}
