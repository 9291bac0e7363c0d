package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLoggerFromContextFallsBackToGlobal(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	if LoggerFromContext(nil) != Logger() {
		t.Fatal("expected global logger for nil context")
	}
	if LoggerFromContext(context.Background()) != Logger() {
		t.Fatal("expected global logger for bare context")
	}
	ctx := context.WithValue(context.Background(), ctxLoggerKey{}, (*zap.Logger)(nil))
	if LoggerFromContext(ctx) != Logger() {
		t.Fatal("expected global logger when stored logger is nil")
	}
}

func TestWithFieldsAccumulates(t *testing.T) {
	ctx, logs := observedContext()
	ctx = WithFields(ctx, zap.String("sessionId", "s-1"))
	ctx = WithFields(ctx, zap.String("portfolioId", "p-1"))
	LogInfo(ctx, "merged")

	fields := logs.All()[0].ContextMap()
	if fields["sessionId"] != "s-1" || fields["portfolioId"] != "p-1" {
		t.Fatalf("expected both fields, got %v", fields)
	}
}

func TestWithFieldsNoFieldsKeepsContext(t *testing.T) {
	ctx := context.Background()
	if WithFields(ctx) != ctx {
		t.Fatal("expected the same context when no fields are given")
	}
}

func TestLogHelpers(t *testing.T) {
	ctx, logs := observedContext()
	LogInfo(ctx, "info", zap.Int("n", 1))
	LogWarn(ctx, "warn")
	LogError(ctx, "error", errors.New("boom"))
	LogError(ctx, "error without cause", nil)

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	levels := []zapcore.Level{zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != levels[i] {
			t.Errorf("entry %d: expected %s, got %s", i, levels[i], e.Level)
		}
	}
	if entries[2].ContextMap()["error"] != "boom" {
		t.Errorf("expected error field, got %v", entries[2].ContextMap())
	}
	if _, ok := entries[3].ContextMap()["error"]; ok {
		t.Error("expected no error field for nil error")
	}
}

func TestLogFatalAppendsErrorField(t *testing.T) {
	ctx, logs := observedContext()
	logger := LoggerFromContext(ctx).WithOptions(zap.WithFatalHook(zapcore.WriteThenPanic))
	ctx = contextWithLogger(ctx, logger)

	defer func() {
		if recover() == nil {
			t.Fatal("expected fatal hook to panic")
		}
		e := logs.All()[0]
		if e.Level != zapcore.FatalLevel || e.ContextMap()["error"] != "config missing" {
			t.Fatalf("unexpected fatal entry %+v", e)
		}
	}()
	LogFatal(ctx, "startup failed", errors.New("config missing"))
}

func TestContextWithLoggerNilContext(t *testing.T) {
	logger := zap.NewNop()
	//nolint:staticcheck // nil context is part of the contract
	ctx := contextWithLogger(nil, logger)
	if LoggerFromContext(ctx) != logger {
		t.Fatal("expected stored logger")
	}
}
