package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	buffer := &bytes.Buffer{}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buffer),
		zap.DebugLevel,
	)

	prev := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = prev })
	return buffer
}

func TestLogger_Info_WithTraceID(t *testing.T) {
	buffer := captureLog(t)

	ctx := WithTrace(context.Background(), "session-12345")
	Info(ctx, "crawl started", zap.String("exchange", "binance"), zap.Int("symbols", 2))

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &logEntry), "log line must be valid JSON")

	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "crawl started", logEntry["msg"])
	assert.Equal(t, "binance", logEntry["exchange"])
	assert.Equal(t, float64(2), logEntry["symbols"])
	assert.Equal(t, "session-12345", logEntry[TraceIdKey])
}

func TestLogger_Error_NoTraceID(t *testing.T) {
	buffer := captureLog(t)

	Error(context.Background(), "engine fault", zap.String("feed", "trade"))

	var logEntry map[string]interface{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &logEntry))

	_, exists := logEntry[TraceIdKey]
	assert.False(t, exists, "a context without a session must not emit trace_id")
	assert.Equal(t, "error", logEntry["level"])
}

func TestTraceID_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context is part of the contract
	assert.Equal(t, "", TraceID(nil))
	assert.Equal(t, "abc", TraceID(WithTrace(nil, "abc")))
}
