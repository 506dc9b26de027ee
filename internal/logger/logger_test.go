package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func captureJSON(t *testing.T, detailed bool) *bytes.Buffer {
	t.Helper()
	if err := InitWithConfig(LogConfig{Level: "DEBUG", Format: "json", DetailedLogging: detailed}); err != nil {
		t.Fatalf("InitWithConfig: %v", err)
	}
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	t.Cleanup(func() {
		globalLogger = prev
		detailedLogging = false
	})
	return &buf
}

func TestIsDebugEnabledFollowsConfig(t *testing.T) {
	captureJSON(t, true)
	if !IsDebugEnabled() {
		t.Error("Expected detailed logging to be enabled")
	}
	captureJSON(t, false)
	if IsDebugEnabled() {
		t.Error("Expected detailed logging to be disabled")
	}
}

func TestErrorLogsAtErrorLevel(t *testing.T) {
	buf := captureJSON(t, false)
	Error(context.Background(), "Failed to remove orphaned statement file", "key", "555001/a.html")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if rec["level"] != "ERROR" || rec["key"] != "555001/a.html" {
		t.Errorf("Unexpected record %v", rec)
	}
}

func TestStartOperationWithoutTracing(t *testing.T) {
	captureJSON(t, false)
	ctx := context.Background()
	timer := StartOperation(ctx, "analytics.Compute", "trades", 3)
	if timer.GetContext() != ctx {
		t.Error("Expected the caller context when tracing is off")
	}
	timer.End()
}
