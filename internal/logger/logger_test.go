package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Every entry written by the production encoder is one JSON object with
// level, timestamp and message
func TestProperty_LogsAreStructured(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("all log entries are in structured JSON format", prop.ForAll(
		func(message string, level string) bool {
			var buf bytes.Buffer

			encoderConfig := zap.NewProductionEncoderConfig()
			encoderConfig.TimeKey = "timestamp"
			encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

			core := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(&buf),
				zapcore.DebugLevel,
			)
			logger := zap.New(core)

			switch level {
			case "debug":
				logger.Debug(message, zap.String("product_id", "x"))
			case "warn":
				logger.Warn(message, zap.String("product_id", "x"))
			case "error":
				logger.Error(message, zap.String("product_id", "x"))
			default:
				logger.Info(message, zap.String("product_id", "x"))
			}

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				return false
			}

			return entry["level"] == level &&
				entry["msg"] == message &&
				entry["timestamp"] != nil &&
				entry["product_id"] == "x"
		},
		gen.AlphaString(),
		gen.OneConstOf("debug", "info", "warn", "error"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestNew_AppliesLevel(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		log, err := New(env, "warn")
		require.NoError(t, err, env)

		assert.False(t, log.Core().Enabled(zapcore.InfoLevel), env)
		assert.True(t, log.Core().Enabled(zapcore.WarnLevel), env)
	}
}

func TestNew_DefaultLevels(t *testing.T) {
	prod, err := New("production", "")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev, err := New("development", "")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("production", "verbose")
	assert.Error(t, err)
}
