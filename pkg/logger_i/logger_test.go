package logger_i

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerPicksUpLateInit(t *testing.T) {
	log := NewLogger("queue")

	var buf bytes.Buffer
	InitWriter(&buf, "debug", true)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	log.With("jobId", "j-1").Warn("job dropped", "reason", "purged")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "queue" || entry["jobId"] != "j-1" || entry["reason"] != "purged" {
		t.Errorf("missing attributes: %v", entry)
	}
	source, ok := entry["source"].(map[string]any)
	if !ok || !strings.HasSuffix(source["file"].(string), "logger_test.go") {
		t.Errorf("source should point at the caller, got %v", entry["source"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf, "warn", false)
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))) })

	log := NewLogger("worker")
	log.Debug("hidden")
	log.Info("hidden too")
	log.Error("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug/info should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("error should be logged: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
