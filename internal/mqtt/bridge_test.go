package mqtt

import (
	"context"
	"testing"

	"github.com/wrenlabs/wren/internal/config"
	"github.com/wrenlabs/wren/internal/gateway"
)

type fakeAgent struct {
	inputs []string
	reply  string
	err    error
}

func (f *fakeAgent) Converse(ctx context.Context, input string) (string, error) {
	f.inputs = append(f.inputs, input)
	return f.reply, f.err
}

func newTestBridge(t *testing.T, agent *fakeAgent, accessMode string, senders ...string) *Bridge {
	t.Helper()
	access, err := gateway.NewAccessPolicy(config.AccessConfig{Mode: accessMode, AllowedSenders: senders})
	if err != nil {
		t.Fatal(err)
	}
	return New(config.MQTTConfig{InTopic: "wren/in", OutTopic: "wren/out"}, agent, access, nil, nil)
}

func TestHandlePayloadJSON(t *testing.T) {
	agent := &fakeAgent{reply: "hello alice"}
	b := newTestBridge(t, agent, "allowlist", "alice")

	got, ok := b.handlePayload(context.Background(), []byte(`{"sender":"alice","message":"hi"}`))
	if !ok {
		t.Fatal("allowed sender should produce a response")
	}
	if got != "hello alice" {
		t.Errorf("response = %q", got)
	}
	if len(agent.inputs) != 1 || agent.inputs[0] != "hi" {
		t.Errorf("agent inputs = %v", agent.inputs)
	}
}

func TestHandlePayloadPlainText(t *testing.T) {
	agent := &fakeAgent{reply: "ok"}
	b := newTestBridge(t, agent, "public")

	got, ok := b.handlePayload(context.Background(), []byte("just text"))
	if !ok || got != "ok" {
		t.Errorf("handlePayload = %q, %v", got, ok)
	}
	if agent.inputs[0] != "just text" {
		t.Errorf("agent input = %q", agent.inputs[0])
	}
}

func TestHandlePayloadBlockedSender(t *testing.T) {
	agent := &fakeAgent{reply: "should not happen"}
	b := newTestBridge(t, agent, "allowlist", "alice")

	if _, ok := b.handlePayload(context.Background(), []byte(`{"sender":"mallory","message":"let me in"}`)); ok {
		t.Fatal("unlisted sender must be dropped")
	}
	if len(agent.inputs) != 0 {
		t.Error("agent must not run for a blocked sender")
	}
}

func TestHandlePayloadDisabledDropsAll(t *testing.T) {
	agent := &fakeAgent{}
	b := newTestBridge(t, agent, "disabled")

	if _, ok := b.handlePayload(context.Background(), []byte(`{"sender":"alice","message":"hi"}`)); ok {
		t.Fatal("disabled access should drop everything")
	}
}

func TestHandlePayloadEmptyMessage(t *testing.T) {
	agent := &fakeAgent{}
	b := newTestBridge(t, agent, "public")

	if _, ok := b.handlePayload(context.Background(), []byte(`{"sender":"alice"}`)); ok {
		t.Fatal("empty message should be ignored")
	}
	if len(agent.inputs) != 0 {
		t.Error("agent must not run for an empty message")
	}
}
