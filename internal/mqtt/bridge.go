// Package mqtt bridges the agent onto an MQTT broker: messages
// published to the inbound topic become agent turns, and the final
// answer is published to the outbound topic. Connection management is
// delegated to Eclipse Paho v2's autopaho package, which reconnects
// and re-subscribes automatically.
package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/wrenlabs/wren/internal/config"
	"github.com/wrenlabs/wren/internal/events"
	"github.com/wrenlabs/wren/internal/gateway"
)

// inboundMessage is the JSON payload format for the inbound topic. A
// payload that is not valid JSON is treated as bare message text from
// an anonymous sender.
type inboundMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// Bridge connects one broker subscription to the agent.
type Bridge struct {
	cfg    config.MQTTConfig
	agent  gateway.Converser
	access *gateway.AccessPolicy
	bus    *events.Bus
	logger *slog.Logger
	cm     *autopaho.ConnectionManager
}

// New creates a Bridge but does not connect. Call Start to begin.
func New(cfg config.MQTTConfig, agent gateway.Converser, access *gateway.AccessPolicy, bus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		cfg:    cfg,
		agent:  agent,
		access: access,
		bus:    bus,
		logger: logger.With("gateway", "mqtt"),
	}
}

// Start connects to the broker and serves inbound messages until ctx
// is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	brokerURL, err := url.Parse(b.cfg.Broker)
	if err != nil {
		return fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       30,
		ConnectUsername: b.cfg.Username,
		ConnectPassword: []byte(b.cfg.Password),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			b.logger.Info("connected to broker", "broker", b.cfg.Broker, "in_topic", b.cfg.InTopic)
			if _, err := cm.Subscribe(ctx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{{Topic: b.cfg.InTopic, QoS: 1}},
			}); err != nil {
				b.logger.Error("subscribe failed", "topic", b.cfg.InTopic, "error", err)
			}
		},
		OnConnectError: func(err error) {
			b.logger.Warn("connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "wren-mqtt",
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					b.onMessage(ctx, pr.Packet.Payload)
					return true, nil
				},
			},
		},
	}
	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	b.cm = cm

	<-ctx.Done()
	return nil
}

// Stop disconnects from the broker.
func (b *Bridge) Stop(ctx context.Context) error {
	if b.cm == nil {
		return nil
	}
	return b.cm.Disconnect(ctx)
}

// onMessage handles one inbound payload end to end.
func (b *Bridge) onMessage(ctx context.Context, payload []byte) {
	response, ok := b.handlePayload(ctx, payload)
	if !ok {
		return
	}
	if err := b.publish(ctx, response); err != nil {
		b.logger.Error("publish response failed", "error", err)
	}
}

// handlePayload decodes, filters, and converses. The second return is
// false when no response should be published (sender filtered, empty
// message, or agent error).
func (b *Bridge) handlePayload(ctx context.Context, payload []byte) (string, bool) {
	var in inboundMessage
	if err := json.Unmarshal(payload, &in); err != nil {
		in = inboundMessage{Message: string(payload)}
	}
	if in.Message == "" {
		return "", false
	}

	b.bus.Emit(events.SourceMQTT, events.KindMessageReceived, map[string]any{
		"sender":      in.Sender,
		"message_len": len(in.Message),
	})

	if !b.access.Allow(in.Sender) {
		b.logger.Warn("sender not allowed", "sender", in.Sender)
		return "", false
	}

	response, err := b.agent.Converse(ctx, in.Message)
	if err != nil {
		b.logger.Error("agent turn failed", "error", err)
		return "", false
	}
	return response, true
}

func (b *Bridge) publish(ctx context.Context, response string) error {
	if b.cm == nil {
		return fmt.Errorf("not connected")
	}
	_, err := b.cm.Publish(ctx, &paho.Publish{
		Topic:   b.cfg.OutTopic,
		QoS:     1,
		Payload: []byte(response),
	})
	return err
}
