package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excellerator/internal/logging"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("nonsense"))
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "info", "json")

	logger.Info("hello", "component", "test")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "test", entry["component"])
}

func TestSetLevel_AppliesToExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "info", "console")

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logging.SetLevel("debug")
	t.Cleanup(func() { logging.SetLevel("info") })
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestRedactValue(t *testing.T) {
	assert.Equal(t, "", logging.RedactValue("  "))
	assert.Equal(t, "****", logging.RedactValue("short"))
	assert.Equal(t, "sk-a…wxyz", logging.RedactValue("sk-abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "Bearer abcd…6789", logging.RedactValue("Bearer abcdef0123456789"))
}
