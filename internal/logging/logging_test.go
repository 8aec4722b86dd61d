package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"mailcanvas/internal/config"
	"mailcanvas/internal/logging"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mailcanvas.log")

	log, level, err := logging.New(config.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, level.Level())

	log.Debug("hidden")
	log.Info("template saved")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "template saved")
	require.NotContains(t, string(data), "hidden")
}

func TestNew_LevelIsAdjustable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adjust.log")
	log, level, err := logging.New(config.LoggingConfig{Level: "warn", File: path})
	require.NoError(t, err)

	log.Info("before")
	level.SetLevel(zapcore.DebugLevel)
	log.Debug("after")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "before")
	require.Contains(t, string(data), "after")
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := logging.New(config.LoggingConfig{Level: "shout"})
	require.Error(t, err)
}
