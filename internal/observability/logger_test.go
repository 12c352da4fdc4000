// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/stutter-cli/internal/config"
)

func initBuffered(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)
	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitialize(t *testing.T) {
	t.Run("console format colors the level", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "stutter-cli",
			Colors:      config.ColorConfig{Info: "green"},
		})
		GetLogger().Named("host").Info("Scene loaded.")

		out := buf.String()
		assert.Contains(t, out, levelColors["green"]+"INFO"+colorReset)
		assert.Contains(t, out, "stutter-cli.host.")
		assert.Contains(t, out, "Scene loaded.")
	})

	t.Run("unknown color leaves the level plain", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{
			Level:  "info",
			Format: "console",
			Colors: config.ColorConfig{Warn: "plaid"},
		})
		GetLogger().Warn("Careful.")
		assert.Contains(t, buf.String(), "\tWARN\t")
	})

	t.Run("json format", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "stutter-cli"})
		GetLogger().Warn("Trial recorded.", zap.Int("hits", 2))

		var entry map[string]any
		require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "stutter-cli", entry["logger"])
		assert.Equal(t, "Trial recorded.", entry["msg"])
		assert.EqualValues(t, 2, entry["hits"])
	})

	t.Run("level filters entries", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "warn", Format: "json"})
		GetLogger().Info("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "chatty", Format: "json"})
		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("log file receives json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "stutter.log")
		initBuffered(t, config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1})
		GetLogger().Error("Results could not be written.")
		Sync()

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"Results could not be written."`)
	})

	t.Run("only the first call wins", func(t *testing.T) {
		buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})
		first := GetLogger()
		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "second"}, zapcore.AddSync(&bytes.Buffer{}))

		assert.Same(t, first, GetLogger())
		GetLogger().Info("once")
		assert.Contains(t, buf.String(), "first")
		assert.NotContains(t, buf.String(), "second")
	})
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger)
	assert.Nil(t, globalLogger.Load(), "the fallback is not stored")
}

func TestForRun(t *testing.T) {
	buf := initBuffered(t, config.LoggerConfig{Level: "info", Format: "json"})
	id := uuid.New()
	ForRun(GetLogger(), id, 42).Info("Run finished.")

	var entry map[string]any
	require.NoError(t, jsoniter.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, id.String(), entry["run_id"])
	assert.EqualValues(t, 42, entry["seed"])
}
