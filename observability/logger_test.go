package observability

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestInitLogger_Development(t *testing.T) {
	InitLogger(false)

	if Logger == nil {
		t.Error("Logger should not be nil after initialization")
	}
}

func TestInitLogger_Production(t *testing.T) {
	InitLogger(true)

	if Logger == nil {
		t.Error("Logger should not be nil after initialization")
	}
}

func TestInitLoggerWithLevel(t *testing.T) {
	InitLoggerWithLevel(false, slog.LevelDebug)

	if Logger == nil {
		t.Error("Logger should not be nil after initialization")
	}
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	Logger = slog.New(handler)

	Info("info message", "key", "value")
	if !strings.Contains(buf.String(), "info message") {
		t.Error("Info message not logged")
	}

	buf.Reset()
	Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("Warn message not logged")
	}

	buf.Reset()
	Debug("debug message")
	if !strings.Contains(buf.String(), "debug message") {
		t.Error("Debug message not logged")
	}
}

func TestWithTicker(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{})
	Logger = slog.New(handler)

	WithTicker("AAPL").Info("scanning")

	out := buf.String()
	if !strings.Contains(out, "ticker=AAPL") {
		t.Errorf("expected ticker field in output, got %q", out)
	}
}

func TestWithTicker_NilLogger(t *testing.T) {
	Logger = nil
	if logger := WithTicker("MSFT"); logger == nil {
		t.Error("WithTicker should not return nil")
	}
}
