package telegram

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/wrenlabs/wren/internal/events"
	"github.com/wrenlabs/wren/internal/gateway"
)

// pollTimeout is the server-side getUpdates hold, in seconds.
const pollTimeout = 50

// errorBackoff is how long the poll loop sleeps after a failed
// getUpdates call.
const errorBackoff = 5 * time.Second

// handleTimeout bounds one inbound message end to end (agent turn
// plus reply send).
const handleTimeout = 5 * time.Minute

// Bridge polls Telegram for messages, routes them through the agent,
// and replies in the originating chat.
type Bridge struct {
	client *Client
	agent  gateway.Converser
	access *gateway.AccessPolicy
	bus    *events.Bus
	logger *slog.Logger
	selfID int64
}

// NewBridge creates a Telegram bridge.
func NewBridge(client *Client, agent gateway.Converser, access *gateway.AccessPolicy, bus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		client: client,
		agent:  agent,
		access: access,
		bus:    bus,
		logger: logger.With("gateway", "telegram"),
	}
}

// Start verifies the token and long-polls until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}
	b.selfID = me.ID
	b.logger.Info("telegram bridge started", "username", me.Username)

	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram bridge shutting down")
			return nil
		default:
		}

		updates, err := b.client.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.logger.Warn("poll failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(errorBackoff):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate processes one update: filter, converse, reply.
func (b *Bridge) handleUpdate(ctx context.Context, update Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}
	if msg.From.IsBot || msg.From.ID == b.selfID {
		return
	}

	senderID := strconv.FormatInt(msg.From.ID, 10)
	b.bus.Emit(events.SourceTelegram, events.KindMessageReceived, map[string]any{
		"sender":      senderID,
		"message_len": len(msg.Text),
	})

	// A sender may be listed by numeric id or by username.
	if !b.access.Allow(senderID) && !(msg.From.Username != "" && b.access.Allow(msg.From.Username)) {
		b.logger.Warn("sender not allowed", "sender", senderID, "username", msg.From.Username)
		return
	}

	handleCtx, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	response, err := b.agent.Converse(handleCtx, msg.Text)
	if err != nil {
		b.logger.Error("agent turn failed", "error", err)
		return
	}
	if response == "" {
		return
	}
	if err := b.client.SendMessage(handleCtx, msg.Chat.ID, RenderHTML(response)); err != nil {
		b.logger.Error("reply send failed", "chat_id", msg.Chat.ID, "error", err)
	}
}
