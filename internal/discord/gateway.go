package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway opcodes. Only the ones the bridge handles.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatACK   = 11
)

// intents requested at identify: guild messages, DMs, and message
// content.
const intents = (1 << 9) | (1 << 12) | (1 << 15)

// reconnectDelay is the pause between connection attempts.
const reconnectDelay = 5 * time.Second

// payload is the gateway frame envelope.
type payload struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d,omitempty"`
	S  int64           `json:"s,omitempty"`
	T  string          `json:"t,omitempty"`
}

type helloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

type identifyData struct {
	Token      string         `json:"token"`
	Intents    int            `json:"intents"`
	Properties map[string]any `json:"properties"`
}

type readyData struct {
	User Author `json:"user"`
}

// Author is a Discord user as it appears on messages.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot"`
}

// MessageCreate is the MESSAGE_CREATE dispatch payload, trimmed to
// the fields the bridge uses.
type MessageCreate struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Content   string `json:"content"`
	Author    Author `json:"author"`
}

// Gateway maintains the websocket session and delivers MESSAGE_CREATE
// events to a handler.
type Gateway struct {
	token   string
	url     string
	logger  *slog.Logger
	handler func(ctx context.Context, selfID string, msg MessageCreate)

	mu     sync.Mutex
	conn   *websocket.Conn
	seq    int64
	selfID string
}

// NewGateway creates a gateway client. handler is invoked for every
// inbound MESSAGE_CREATE once the session is ready.
func NewGateway(token string, handler func(ctx context.Context, selfID string, msg MessageCreate), logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		token:   token,
		url:     gatewayURL,
		logger:  logger,
		handler: handler,
	}
}

// Run connects and serves the session, reconnecting on failure, until
// ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	for {
		if err := g.session(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			g.logger.Warn("gateway session ended", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// session runs one websocket connection from dial to failure.
func (g *Gateway) session(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, g.url, nil)
	if err != nil {
		return fmt.Errorf("dial gateway: %w", err)
	}
	g.mu.Lock()
	g.conn = conn
	g.mu.Unlock()
	defer conn.Close()

	// First frame must be HELLO with the heartbeat interval.
	var hello payload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var helloD helloData
	if err := json.Unmarshal(hello.D, &helloD); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}

	if err := g.identify(); err != nil {
		return err
	}

	heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go g.heartbeatLoop(heartbeatCtx, time.Duration(helloD.HeartbeatInterval)*time.Millisecond)

	for {
		var frame payload
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if frame.S != 0 {
			g.mu.Lock()
			g.seq = frame.S
			g.mu.Unlock()
		}

		switch frame.Op {
		case opDispatch:
			g.dispatch(ctx, frame)
		case opHeartbeat:
			g.sendHeartbeat()
		case opHeartbeatACK:
			// Healthy connection; nothing to do.
		case opReconnect, opInvalidSession:
			return fmt.Errorf("server requested reconnect (op %d)", frame.Op)
		}
	}
}

func (g *Gateway) identify() error {
	d, err := json.Marshal(identifyData{
		Token:   g.token,
		Intents: intents,
		Properties: map[string]any{
			"os":      "linux",
			"browser": "wren",
			"device":  "wren",
		},
	})
	if err != nil {
		return err
	}
	return g.writeJSON(payload{Op: opIdentify, D: d})
}

// heartbeatLoop sends heartbeats at the negotiated interval, with the
// jittered initial delay the gateway documentation asks for.
func (g *Gateway) heartbeatLoop(ctx context.Context, interval time.Duration) {
	first := time.Duration(rand.Int63n(int64(interval)))
	select {
	case <-ctx.Done():
		return
	case <-time.After(first):
	}
	g.sendHeartbeat()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.sendHeartbeat()
		}
	}
}

func (g *Gateway) sendHeartbeat() {
	g.mu.Lock()
	seq := g.seq
	g.mu.Unlock()
	d, _ := json.Marshal(seq)
	if err := g.writeJSON(payload{Op: opHeartbeat, D: d}); err != nil {
		g.logger.Warn("heartbeat send failed", "error", err)
	}
}

func (g *Gateway) writeJSON(p payload) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return fmt.Errorf("not connected")
	}
	return g.conn.WriteJSON(p)
}

func (g *Gateway) dispatch(ctx context.Context, frame payload) {
	switch frame.T {
	case "READY":
		var ready readyData
		if err := json.Unmarshal(frame.D, &ready); err != nil {
			g.logger.Warn("decode ready failed", "error", err)
			return
		}
		g.mu.Lock()
		g.selfID = ready.User.ID
		g.mu.Unlock()
		g.logger.Info("discord session ready", "username", ready.User.Username)
	case "MESSAGE_CREATE":
		var msg MessageCreate
		if err := json.Unmarshal(frame.D, &msg); err != nil {
			g.logger.Warn("decode message failed", "error", err)
			return
		}
		g.mu.Lock()
		selfID := g.selfID
		g.mu.Unlock()
		if g.handler != nil {
			g.handler(ctx, selfID, msg)
		}
	}
}
