package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug", slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLevel("Warning", slog.LevelInfo))
	assert.Equal(t, slog.LevelError, ParseLevel(" ERROR ", slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, ParseLevel("", slog.LevelInfo))
	assert.Equal(t, slog.LevelWarn, ParseLevel("loud", slog.LevelWarn))
}

func TestDefaultConfig_ReadsEnv(t *testing.T) {
	t.Setenv("CADENCE_LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, DefaultConfig().Level)

	t.Setenv("CADENCE_LOG_LEVEL", "")
	assert.Equal(t, slog.LevelInfo, DefaultConfig().Level)
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Config{Level: slog.LevelInfo, Format: "json", Output: &buf})

	log.Debug("hidden")
	log.Info("queue restored", "entries", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "queue restored", record["msg"])
	assert.Equal(t, "cadence", record["app"])
	assert.EqualValues(t, 3, record["entries"])
}
