package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.NotEmpty(t, cfg.TimeFormat)
}

func TestNew_JSONFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncd.log")
	log, err := New(&Config{
		Level:      "info",
		Format:     "json",
		Output:     path,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	require.NoError(t, err)

	log.Info("run finished", zap.String("run_id", "r-1"))
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"run finished"`)
	assert.Contains(t, string(data), `"run_id":"r-1"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestNew_ConsoleFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncd.log")
	log, err := New(&Config{
		Level:      "debug",
		Format:     "console",
		Output:     path,
		TimeFormat: "15:04:05",
	})
	require.NoError(t, err)

	log.Debug("lease acquired")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "lease acquired")
	assert.NotContains(t, string(data), `"msg"`)
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syncd.log")
	log, err := New(&Config{
		Level:      "verbose",
		Format:     "json",
		Output:     path,
		TimeFormat: "15:04:05",
	})
	require.NoError(t, err)

	log.Debug("suppressed")
	log.Info("emitted")
	require.NoError(t, Sync(log))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "suppressed")
	assert.Contains(t, string(data), "emitted")
}

func TestNew_UnwritableOutputFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "syncd.log")
	_, err := New(&Config{Level: "info", Format: "json", Output: path, TimeFormat: "15:04:05"})
	assert.Error(t, err)
}

func TestLevelFor(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"WARN":    zapcore.WarnLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for input, want := range cases {
		assert.Equal(t, want, levelFor(input), "level %q", input)
	}
}

func TestSinkFor_Standard(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", ""} {
		sink, err := sinkFor(output)
		require.NoError(t, err)
		assert.NotNil(t, sink)
	}
}
