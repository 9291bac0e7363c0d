package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/portfolio-builder/internal/platform/timeutil"
)

// bufferLogger returns a logger writing JSON lines to the returned buffer.
func bufferLogger(level zapcore.Level) (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return newLogger(zapcore.AddSync(&buf), level), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(line), &payload); err != nil {
			t.Fatalf("failed to unmarshal log line %q: %v", line, err)
		}
		out = append(out, payload)
	}
	return out
}

func TestLoggerStructuredOutput(t *testing.T) {
	logger, buf := bufferLogger(zapcore.InfoLevel)
	logger.Info("portfolio published", zap.String("slug", "jane-doe"))

	lines := decodeLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	payload := lines[0]

	if payload["severity"] != "INFO" {
		t.Fatalf("expected severity INFO, got %v", payload["severity"])
	}
	if _, exists := payload["level"]; exists {
		t.Fatal("did not expect a level field")
	}
	if payload["message"] != "portfolio published" {
		t.Fatalf("unexpected message %v", payload["message"])
	}
	if payload["slug"] != "jane-doe" {
		t.Fatalf("expected slug field, got %v", payload["slug"])
	}
	if _, ok := payload["caller"].(string); !ok {
		t.Fatalf("expected caller field, got %v", payload["caller"])
	}
	ts, ok := payload["timestamp"].(string)
	if !ok {
		t.Fatalf("expected timestamp string, got %T", payload["timestamp"])
	}
	if _, err := time.Parse(timeutil.RFC3339Micros, ts); err != nil {
		t.Fatalf("timestamp is not RFC3339Micros: %v", err)
	}
}

func TestLoggerServiceContext(t *testing.T) {
	t.Setenv("K_SERVICE", "portfolio-api")
	t.Setenv("K_REVISION", "portfolio-api-00042")

	logger, buf := bufferLogger(zapcore.InfoLevel)
	logger.Info("started")

	svc, ok := decodeLines(t, buf)[0]["serviceContext"].(map[string]any)
	if !ok {
		t.Fatal("expected serviceContext object")
	}
	if svc["service"] != "portfolio-api" || svc["version"] != "portfolio-api-00042" {
		t.Fatalf("unexpected serviceContext %v", svc)
	}
}

func TestLoggerServiceContextDefaults(t *testing.T) {
	t.Setenv("K_SERVICE", "")
	t.Setenv("K_REVISION", "")

	logger, buf := bufferLogger(zapcore.InfoLevel)
	logger.Info("started")

	svc := decodeLines(t, buf)[0]["serviceContext"].(map[string]any)
	if svc["service"] != defaultServiceName || svc["version"] != "dev" {
		t.Fatalf("unexpected serviceContext %v", svc)
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	logger, buf := bufferLogger(zapcore.WarnLevel)
	logger.Info("dropped")
	logger.Warn("kept")

	lines := decodeLines(t, buf)
	if len(lines) != 1 || lines[0]["message"] != "kept" {
		t.Fatalf("expected only the warning, got %v", lines)
	}
	if lines[0]["severity"] != "WARNING" {
		t.Fatalf("expected WARNING severity, got %v", lines[0]["severity"])
	}
}

func TestLoggerErrorsCarryStacktrace(t *testing.T) {
	logger, buf := bufferLogger(zapcore.InfoLevel)
	logger.Error("publish failed", zap.Error(errors.New("bucket unreachable")))

	payload := decodeLines(t, buf)[0]
	if payload["severity"] != "ERROR" {
		t.Fatalf("expected ERROR severity, got %v", payload["severity"])
	}
	if payload["error"] != "bucket unreachable" {
		t.Fatalf("expected error field, got %v", payload["error"])
	}
	stack, ok := payload["stacktrace"].(string)
	if !ok || !strings.Contains(stack, "TestLoggerErrorsCarryStacktrace") {
		t.Fatalf("expected stacktrace naming the test, got %v", payload["stacktrace"])
	}
}

// captureArrayEncoder collects strings appended via the PrimitiveArrayEncoder interface.
type captureArrayEncoder struct {
	zapcore.PrimitiveArrayEncoder
	values []string
}

func (c *captureArrayEncoder) AppendString(s string) { c.values = append(c.values, s) }

func TestEncodeSeverityMapping(t *testing.T) {
	tests := []struct {
		level    zapcore.Level
		expected string
	}{
		{zapcore.DebugLevel, "DEBUG"},
		{zapcore.InfoLevel, "INFO"},
		{zapcore.WarnLevel, "WARNING"},
		{zapcore.ErrorLevel, "ERROR"},
		{zapcore.DPanicLevel, "CRITICAL"},
		{zapcore.PanicLevel, "ALERT"},
		{zapcore.FatalLevel, "EMERGENCY"},
		{zapcore.Level(99), "DEFAULT"},
	}

	for _, tt := range tests {
		enc := &captureArrayEncoder{}
		encodeSeverity(tt.level, enc)
		if len(enc.values) != 1 || enc.values[0] != tt.expected {
			t.Fatalf("encodeSeverity(%v) = %v, want %s", tt.level, enc.values, tt.expected)
		}
	}
}

func TestEncodeTimeMicros(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected string
	}{
		{"microseconds", time.Date(2024, 6, 15, 10, 30, 45, 123456000, time.UTC), "2024-06-15T10:30:45.123456Z"},
		{"zero fraction", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-01-01T00:00:00.000000Z"},
		{"converted to UTC", time.Date(2024, 6, 15, 12, 0, 0, 500000000, time.FixedZone("EST", -5*60*60)), "2024-06-15T17:00:00.500000Z"},
		{"truncates nanoseconds", time.Date(2024, 3, 20, 8, 15, 30, 999999999, time.UTC), "2024-03-20T08:15:30.999999Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := &captureArrayEncoder{}
			encodeTimeMicros(tt.input, enc)
			if len(enc.values) != 1 || enc.values[0] != tt.expected {
				t.Fatalf("expected %q, got %v", tt.expected, enc.values)
			}
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		in     string
		want   zapcore.Level
		wantOK bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, true},
		{" WARN ", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"verbose", zapcore.InfoLevel, false},
	}
	for _, tc := range tests {
		got, ok := levelFromEnv(tc.in)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("levelFromEnv(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestGlobalLoggerSingleton(t *testing.T) {
	var wg sync.WaitGroup
	loggers := make([]*zap.Logger, 8)
	for i := range loggers {
		wg.Go(func() { loggers[i] = Logger() })
	}
	wg.Wait()
	for _, l := range loggers[1:] {
		if l != loggers[0] {
			t.Fatal("expected every caller to share one logger")
		}
	}
}
