package eventlog

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestEmit_DeliversToSubscriber(t *testing.T) {
	l := New(io.Discard, zerolog.InfoLevel)
	ch := l.Subscribe(4)

	l.Request("arm_move", `{"x":10,"y":20}`)
	l.Response("arm_move", "moved")

	ev := <-ch
	if ev.Kind != KindRequest {
		t.Errorf("Kind: got %s, want request", ev.Kind)
	}
	if ev.Action != "arm_move" {
		t.Errorf("Action: got %s, want arm_move", ev.Action)
	}

	ev = <-ch
	if ev.Kind != KindResponse {
		t.Errorf("Kind: got %s, want response", ev.Kind)
	}
}

func TestEmit_FullSubscriberDoesNotBlock(t *testing.T) {
	l := New(io.Discard, zerolog.InfoLevel)
	ch := l.Subscribe(1)

	// Second emit must not block even though nothing drains the channel.
	l.Info("session", "created")
	l.Info("session", "closed")

	ev := <-ch
	if ev.Detail != "created" {
		t.Errorf("Detail: got %s, want created", ev.Detail)
	}
	select {
	case ev := <-ch:
		t.Errorf("unexpected second event: %+v", ev)
	default:
	}
}

func TestEmit_WritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel)

	l.Error("arm_connect", "failed to open port")

	line := strings.TrimSpace(buf.String())
	var rec map[string]interface{}
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["kind"] != "error" {
		t.Errorf("kind: got %v, want error", rec["kind"])
	}
	if rec["action"] != "arm_connect" {
		t.Errorf("action: got %v, want arm_connect", rec["action"])
	}
	if rec["detail"] != "failed to open port" {
		t.Errorf("detail: got %v", rec["detail"])
	}
	if rec["level"] != "error" {
		t.Errorf("level: got %v, want error", rec["level"])
	}
}
