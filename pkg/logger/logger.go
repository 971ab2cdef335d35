package logger

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TraceIdKey is the context key carrying the per-call session id.
const TraceIdKey = "trace_id"

type traceKey struct{}

// Log is the process-wide logger. Nil until Init; the wrappers fall back to a
// stderr logger so diagnostics from the shared library are never lost.
var Log *zap.Logger

var (
	fallbackOnce sync.Once
	fallback     *zap.Logger

	level = zap.NewAtomicLevel()
)

// Init builds the diagnostic logger.
// serviceName: name injected as the "service" field (e.g. "libcrawler")
// lvl: debug, info, warn, error
func Init(serviceName string, lvl string) {
	InitWithFile(serviceName, lvl, "")
}

// InitWithFile is Init plus an optional log file. The diagnostic stream is
// always stderr; logFile == "" means stderr only, so a host embedding the
// library does not get stray directories created in its working dir.
func InitWithFile(serviceName string, lvl string, logFile string) {
	if err := SetLevel(lvl); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.MessageKey = "msg"

	writeSyncers := []zapcore.WriteSyncer{
		zapcore.AddSync(os.Stderr),
	}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err == nil {
			file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				writeSyncers = append(writeSyncers, zapcore.AddSync(file))
			}
		}
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(writeSyncers...),
		level,
	)

	// Skip 1: callers go through the wrappers below.
	Log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	Log = Log.With(zap.String("service", serviceName))
}

// SetLevel changes the level of the logger built by Init while it runs.
func SetLevel(lvl string) error {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(lvl)); err != nil {
		return err
	}
	level.SetLevel(l)
	return nil
}

// Level reports the current level of the logger built by Init.
func Level() zapcore.Level { return level.Level() }

// WithTrace returns a context whose log lines carry traceID.
func WithTrace(ctx context.Context, traceID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceKey{}, traceID)
}

// TraceID returns the trace id stored by WithTrace, or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(traceKey{}).(string); ok {
		return id
	}
	return ""
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	get().Info(msg, fields...)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	get().Error(msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	get().Warn(msg, fields...)
}

func Debug(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	get().Debug(msg, fields...)
}

// Fatal logs and terminates the process (os.Exit(1)).
func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	extractTrace(ctx, &fields)
	get().Fatal(msg, fields...)
}

func extractTrace(ctx context.Context, fields *[]zap.Field) {
	if id := TraceID(ctx); id != "" {
		*fields = append(*fields, zap.String(TraceIdKey, id))
	}
}

func get() *zap.Logger {
	if Log != nil {
		return Log
	}
	fallbackOnce.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		l, err := cfg.Build(zap.AddCallerSkip(1))
		if err != nil {
			l = zap.NewNop()
		}
		fallback = l
	})
	return fallback
}

// Sync flushes buffered entries; call it before the process exits.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
