package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cppla/topicbbs/config"
)

func TestLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, logLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, logLevel("warn"))
	assert.Equal(t, zapcore.InfoLevel, logLevel(""))
	assert.Equal(t, zapcore.InfoLevel, logLevel("loud"))
}

func TestNewRollingFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gin.log")

	logger, err := NewRollingFileLogger(path, "warn", 0, 0, 0, false)
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", zap.String("request_id", "r-1"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"request_id":"r-1"`)
	assert.NotContains(t, string(data), "dropped")

	_, err = NewRollingFileLogger("", "info", 0, 0, 0, false)
	assert.Error(t, err)
}

func TestInitLoggerWritesFile(t *testing.T) {
	prev, prevSugar := Logger, Sugar
	t.Cleanup(func() { Logger, Sugar = prev, prevSugar })

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, InitLogger(config.AppConfig{LogLevel: "info", LogPath: path}))
	Sugar.Infof("post %d created", 7)
	_ = Logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"post 7 created"`)
	assert.Contains(t, string(data), `"service":"topicbbs"`)
}
