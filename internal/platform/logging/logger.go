// Package logging provides the process-wide zap logger, request-scoped
// loggers carrying Cloud Trace metadata, and audit event helpers.
package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/janisto/portfolio-builder/internal/platform/timeutil"
)

const defaultServiceName = "portfolio-builder"

var (
	loggerOnce sync.Once
	baseLogger *zap.Logger
)

// encodeTimeMicros formats timestamps as RFC 3339 with fixed microsecond precision.
func encodeTimeMicros(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(timeutil.RFC3339Micros))
}

// encodeSeverity maps zap levels to Cloud Logging severity names.
func encodeSeverity(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var severity string
	switch level {
	case zapcore.DebugLevel:
		severity = "DEBUG"
	case zapcore.InfoLevel:
		severity = "INFO"
	case zapcore.WarnLevel:
		severity = "WARNING"
	case zapcore.ErrorLevel:
		severity = "ERROR"
	case zapcore.DPanicLevel:
		severity = "CRITICAL"
	case zapcore.PanicLevel:
		severity = "ALERT"
	case zapcore.FatalLevel:
		severity = "EMERGENCY"
	default:
		severity = "DEFAULT"
	}
	enc.AppendString(severity)
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = encodeTimeMicros
	cfg.LevelKey = "severity"
	cfg.EncodeLevel = encodeSeverity
	cfg.MessageKey = "message"
	cfg.CallerKey = "caller"
	return cfg
}

// newLogger builds a JSON logger writing to out. Every entry carries the
// serviceContext block Cloud Error Reporting groups by.
func newLogger(out zapcore.WriteSyncer, level zapcore.Level) *zap.Logger {
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), out, level)
	return zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.ErrorOutput(out),
	).With(zap.Dict("serviceContext",
		zap.String("service", envOr("K_SERVICE", defaultServiceName)),
		zap.String("version", envOr("K_REVISION", "dev")),
	))
}

// initLogger constructs the shared logger. LOG_LEVEL (debug, info, warn,
// error) overrides the default info level.
func initLogger() {
	level := zapcore.InfoLevel
	if lvl, ok := levelFromEnv(os.Getenv("LOG_LEVEL")); ok {
		level = lvl
	}
	baseLogger = newLogger(zapcore.Lock(os.Stdout), level)
}

func levelFromEnv(v string) (zapcore.Level, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return zapcore.InfoLevel, false
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(v))
	if err != nil {
		return zapcore.InfoLevel, false
	}
	return lvl, true
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Logger returns the process-wide zap.Logger instance.
func Logger() *zap.Logger {
	loggerOnce.Do(initLogger)
	return baseLogger
}

// Sync flushes buffered log entries. Call during shutdown.
func Sync() error {
	loggerOnce.Do(initLogger)
	return baseLogger.Sync()
}
