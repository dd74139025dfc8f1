// Package events provides a publish/subscribe bus for operational
// visibility into the agent. Components publish as they work; the bus
// is nil-safe, so a component wired without a bus simply publishes
// into the void.
package events

import (
	"sync"
	"time"
)

// Source constants identify the publishing component.
const (
	// SourceAgent identifies events from the core agent loop.
	SourceAgent = "agent"
	// SourceTelegram identifies events from the Telegram bridge.
	SourceTelegram = "telegram"
	// SourceDiscord identifies events from the Discord gateway.
	SourceDiscord = "discord"
	// SourceMQTT identifies events from the MQTT bridge.
	SourceMQTT = "mqtt"
)

// Kind constants describe the type of event within a source.
const (
	// KindRequestStart signals the beginning of an agent turn.
	// Data: request_id, message_len.
	KindRequestStart = "request_start"
	// KindLLMCall signals the start of a model call.
	// Data: request_id, round, model, prompt_len.
	KindLLMCall = "llm_call"
	// KindLLMResponse signals completion of a model call.
	// Data: request_id, round, model, response_len, tool_calls.
	KindLLMResponse = "llm_response"
	// KindToolCall signals the start of a tool dispatch.
	// Data: request_id, component, function.
	KindToolCall = "tool_call"
	// KindToolDone signals completion of a tool dispatch.
	// Data: request_id, component, function, duration_ms.
	KindToolDone = "tool_done"
	// KindRequestComplete signals the end of an agent turn.
	// Data: request_id, rounds, elapsed_ms.
	KindRequestComplete = "request_complete"
	// KindMessageReceived signals an inbound gateway message.
	// Data: sender, message_len.
	KindMessageReceived = "message_received"
)

// Event is a single operational event.
type Event struct {
	Timestamp time.Time      `json:"ts"`
	Source    string         `json:"source"`
	Kind      string         `json:"kind"`
	Data      map[string]any `json:"data,omitempty"`
}

// Bus is a non-blocking broadcast bus. Slow subscribers miss events
// rather than stalling publishers.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
	// recvToSend maps the receive-only channel handed to subscribers
	// back to the send side so Unsubscribe can accept the caller's view.
	recvToSend map[<-chan Event]chan Event
}

// New creates a bus ready for use.
func New() *Bus {
	return &Bus{
		subs:       make(map[chan Event]struct{}),
		recvToSend: make(map[<-chan Event]chan Event),
	}
}

// Publish broadcasts an event, stamping the timestamp if unset.
// Safe on a nil receiver (no-op). Never blocks: full subscriber
// channels drop the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Emit is a convenience wrapper for Publish.
func (b *Bus) Emit(source, kind string, data map[string]any) {
	b.Publish(Event{Source: source, Kind: kind, Data: data})
}

// Subscribe returns a channel receiving published events. The caller
// must Unsubscribe when done.
func (b *Bus) Subscribe(bufSize int) <-chan Event {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	b.recvToSend[ch] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel. No-op for
// an unknown channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sendCh, ok := b.recvToSend[ch]
	if !ok {
		return
	}
	delete(b.subs, sendCh)
	delete(b.recvToSend, ch)
	close(sendCh)
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
