package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithCycleAddsField(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	logger := WithCycle(zerolog.New(&buf), "abc")

	LogDecision(logger, "HOLD", 50, 15, 0, 100, false)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if entry["cycle_id"] != "abc" {
		t.Errorf("cycle_id = %v, want abc", entry["cycle_id"])
	}
	if entry["action"] != "HOLD" {
		t.Errorf("action = %v, want HOLD", entry["action"])
	}
}

func TestCycleIDContext(t *testing.T) {
	id := NewCycleID()
	if len(id) != 36 {
		t.Fatalf("unexpected cycle id %q", id)
	}
	ctx := WithCycleID(context.Background(), id)
	if got := CycleIDFromContext(ctx); got != id {
		t.Errorf("CycleIDFromContext = %q, want %q", got, id)
	}
	if got := CycleIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
}
