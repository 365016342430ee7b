package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerWritesTextFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Info(context.Background(), "round started",
		String("mode", "popper"),
		Int("players", 2),
		Bool("degraded", false),
		Duration("countdown", 3*time.Second),
	)

	out := buf.String()
	for _, want := range []string{"round started", "mode=popper", "players=2", "degraded=false", "source=logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, FormatJSON); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("engine").Warn(context.Background(), "frame dropped", Uint64("tick", 42), Error(errors.New("queue full")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "frame dropped" {
		t.Errorf("unexpected msg: %v", rec["msg"])
	}
	group, ok := rec["engine"].(map[string]any)
	if !ok {
		t.Fatalf("expected named group in %v", rec)
	}
	if group["tick"] != float64(42) {
		t.Errorf("unexpected tick: %v", group["tick"])
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf, FormatText); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	Get().Info(context.Background(), "hidden")
	Get().Debug(context.Background(), "hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	Get().With(String("round", "r1")).Warn(context.Background(), "shown")
	if !strings.Contains(buf.String(), "round=r1") {
		t.Fatalf("expected With field in output, got %q", buf.String())
	}
}

func TestSetLevelStringRejectsUnknown(t *testing.T) {
	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := InitWithWriter(nil, FormatText); err == nil {
		t.Fatal("expected error for nil writer")
	}
	if err := InitWithWriter(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
