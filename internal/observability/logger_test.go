package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/f3rmion/posekit/internal/config"
)

func TestInitialize(t *testing.T) {
	t.Run("console logger colors levels", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "posekit",
			Colors:      config.ColorConfig{Info: "green"},
		}, zapcore.AddSync(&buf))
		GetLogger().Info("extracted pose")
		Sync()

		out := buf.String()
		assert.Contains(t, out, colorGreen+"INFO"+colorReset)
		assert.Contains(t, out, "extracted pose")
		assert.Contains(t, out, "posekit.")
	})

	t.Run("json logger", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "posekit"}, zapcore.AddSync(&buf))
		GetLogger().Warn("bone skipped", zap.String("bone", "hand.L"))
		Sync()

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "posekit", entry["logger"])
		assert.Equal(t, "bone skipped", entry["msg"])
		assert.Equal(t, "hand.L", entry["bone"])
	})

	t.Run("level filters debug", func(t *testing.T) {
		ResetForTest()
		var buf bytes.Buffer

		Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.AddSync(&buf))
		GetLogger().Debug("hidden")
		GetLogger().Info("hidden too")
		Sync()

		assert.Empty(t, buf.String())
	})

	t.Run("file sink", func(t *testing.T) {
		ResetForTest()
		logFile := filepath.Join(t.TempDir(), "posekit.log")

		Initialize(config.LoggerConfig{
			Level:   "debug",
			Format:  "console",
			LogFile: logFile,
			MaxSize: 1,
		}, zapcore.AddSync(&bytes.Buffer{}))
		GetLogger().Error("render failed")
		Sync()

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), `"msg":"render failed"`)
	})

	t.Run("only the first call applies", func(t *testing.T) {
		ResetForTest()
		var first, second bytes.Buffer

		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"}, zapcore.AddSync(&first))
		l1 := GetLogger()
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.AddSync(&second))
		l2 := GetLogger()

		assert.Same(t, l1, l2)
		l2.Info("hello")
		Sync()
		assert.Contains(t, first.String(), "first")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger)
	logger.Info("dropped")
}
