// Package agent implements the core orchestration loop: load history,
// assemble context, then alternate model calls and tool dispatches
// until the model produces a final answer or the round budget runs
// out.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wrenlabs/wren/internal/config"
	"github.com/wrenlabs/wren/internal/conversation"
	"github.com/wrenlabs/wren/internal/events"
	"github.com/wrenlabs/wren/internal/llm"
	"github.com/wrenlabs/wren/internal/prompt"
	"github.com/wrenlabs/wren/internal/toolcall"
	"github.com/wrenlabs/wren/internal/tools"
)

// maxRoundsNotice is the terminal message when a turn exhausts its
// tool round budget.
const maxRoundsNotice = "max tool rounds reached"

// Recorder receives the messages appended during a completed turn.
// Implementations are best-effort: a recording failure is logged, not
// surfaced to the user.
type Recorder interface {
	Record(ctx context.Context, requestID string, msgs []conversation.Message) error
}

// Params bundles the collaborators for NewLoop. Bus and Recorder are
// optional; everything else is required.
type Params struct {
	Store         *conversation.Store
	Builder       *prompt.Builder
	Registry      *tools.Registry
	LLM           llm.Client
	Assembler     *Assembler
	Bus           *events.Bus
	Recorder      Recorder
	Model         string
	MaxToolRounds int
	MaxMessages   int
	Logger        *slog.Logger
}

// Loop is the agent orchestrator. One Loop serves one conversation.
type Loop struct {
	logger        *slog.Logger
	store         *conversation.Store
	builder       *prompt.Builder
	registry      *tools.Registry
	llm           llm.Client
	assembler     *Assembler
	bus           *events.Bus
	recorder      Recorder
	model         string
	maxToolRounds int
	maxMessages   int
}

// NewLoop creates the orchestrator.
func NewLoop(p Params) *Loop {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rounds := p.MaxToolRounds
	if rounds <= 0 {
		rounds = config.DefaultMaxToolRounds
	}
	return &Loop{
		logger:        logger,
		store:         p.Store,
		builder:       p.Builder,
		registry:      p.Registry,
		llm:           p.LLM,
		assembler:     p.Assembler,
		bus:           p.Bus,
		recorder:      p.Recorder,
		model:         p.Model,
		maxToolRounds: rounds,
		maxMessages:   p.MaxMessages,
	}
}

// Converse runs one full turn: the user's message in, the agent's
// final answer out. History is persisted on every exit path that has
// new messages, including model errors.
func (l *Loop) Converse(ctx context.Context, input string) (string, error) {
	if l.model == "" {
		return "", fmt.Errorf("no model configured")
	}

	requestID := newRequestID()
	logger := l.logger.With("request_id", requestID)
	start := time.Now()
	l.bus.Emit(events.SourceAgent, events.KindRequestStart, map[string]any{
		"request_id":  requestID,
		"message_len": len(input),
	})

	log := l.store.Load()
	log = log.Append(conversation.User, input)
	log = log.Evict(l.maxMessages)
	turn := []conversation.Message{{Role: conversation.User, Content: input}}

	// The context is assembled once per turn. Tool rounds within the
	// turn see the same catalog, persona, and memory notice.
	contextText := config.DefaultSystemPrompt
	if l.assembler != nil {
		contextText = l.assembler.Assemble()
	}

	roundsRemaining := l.maxToolRounds
	var accumulated []string

	for round := 1; ; round++ {
		promptText := l.builder.Build(contextText, log)
		logger.Debug("calling model", "round", round, "prompt_len", len(promptText))
		l.bus.Emit(events.SourceAgent, events.KindLLMCall, map[string]any{
			"request_id": requestID,
			"round":      round,
			"model":      l.model,
			"prompt_len": len(promptText),
		})

		response, err := l.llm.Prompt(ctx, l.model, promptText)
		if err != nil {
			logger.Error("model call failed", "round", round, "error", err)
			l.store.Save(log)
			return "", fmt.Errorf("LLM call failed: %w", err)
		}

		parsed, hasCalls := toolcall.Parse(response)
		calls := 0
		if hasCalls {
			calls = len(parsed.Calls)
		}
		l.bus.Emit(events.SourceAgent, events.KindLLMResponse, map[string]any{
			"request_id":   requestID,
			"round":        round,
			"model":        l.model,
			"response_len": len(response),
			"tool_calls":   calls,
		})

		if !hasCalls {
			final := response
			if len(accumulated) > 0 {
				final = strings.Join(accumulated, "\n\n") + "\n\n" + final
			}
			log = log.Append(conversation.Assistant, final)
			turn = append(turn, conversation.Message{Role: conversation.Assistant, Content: final})
			l.finish(ctx, logger, requestID, log, turn, round, start)
			return final, nil
		}

		if text := parsed.SurroundingText(); text != "" {
			accumulated = append(accumulated, text)
			log = log.Append(conversation.Assistant, text)
			turn = append(turn, conversation.Message{Role: conversation.Assistant, Content: text})
		}

		for _, call := range parsed.Calls {
			block := call.Block()
			log = log.Append(conversation.ToolCall, block)
			turn = append(turn, conversation.Message{Role: conversation.ToolCall, Content: block})

			l.bus.Emit(events.SourceAgent, events.KindToolCall, map[string]any{
				"request_id": requestID,
				"component":  call.Component,
				"function":   call.Function,
			})
			dispatchStart := time.Now()
			result := l.registry.Dispatch(ctx, call.Component, call.Function, call.Args)
			l.bus.Emit(events.SourceAgent, events.KindToolDone, map[string]any{
				"request_id":  requestID,
				"component":   call.Component,
				"function":    call.Function,
				"duration_ms": time.Since(dispatchStart).Milliseconds(),
			})

			log = log.Append(conversation.ToolResult, result)
			turn = append(turn, conversation.Message{Role: conversation.ToolResult, Content: result})
		}

		roundsRemaining--
		if roundsRemaining <= 0 {
			logger.Warn("tool round budget exhausted", "rounds", l.maxToolRounds)
			final := maxRoundsNotice
			if len(accumulated) > 0 {
				final = strings.Join(accumulated, "\n\n") + "\n\n" + final
			}
			log = log.Append(conversation.Assistant, final)
			turn = append(turn, conversation.Message{Role: conversation.Assistant, Content: final})
			l.finish(ctx, logger, requestID, log, turn, round, start)
			return final, nil
		}
	}
}

// finish persists history, records the turn, and publishes the
// completion event.
func (l *Loop) finish(ctx context.Context, logger *slog.Logger, requestID string, log conversation.Log, turn []conversation.Message, rounds int, start time.Time) {
	l.store.Save(log)
	if l.recorder != nil {
		if err := l.recorder.Record(ctx, requestID, turn); err != nil {
			logger.Warn("turn recording failed", "error", err)
		}
	}
	l.bus.Emit(events.SourceAgent, events.KindRequestComplete, map[string]any{
		"request_id": requestID,
		"rounds":     rounds,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	logger.Info("turn complete", "rounds", rounds, "elapsed", time.Since(start))
}

// newRequestID returns a time-ordered unique id for log correlation.
func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
