package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, Config{Format: "json"}).
		WithField("component", "trend_cache").
		WithFields(map[string]interface{}{"records": 100}).
		WithError(errors.New("source down"))

	l.Error("Trend refresh failed")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "Trend refresh failed", line["message"])
	assert.Equal(t, "trend_cache", line["component"])
	assert.Equal(t, float64(100), line["records"])
	assert.Equal(t, "source down", line["error"])
	assert.Contains(t, line, "time")
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, Config{Format: "console"}).WithField("snapshot_id", "abc").Info("Assembled")

	out := buf.String()
	assert.Contains(t, out, "Assembled")
	assert.Contains(t, out, "snapshot_id=abc")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":    zerolog.DebugLevel,
		"INFO":     zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"off":      zerolog.Disabled,
		"nonsense": zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestGetTimeFormat(t *testing.T) {
	assert.Equal(t, time.RFC3339, getTimeFormat(""))
	assert.Equal(t, time.RFC3339, getTimeFormat("RFC3339"))
	assert.Equal(t, time.Kitchen, getTimeFormat("kitchen"))
	assert.Equal(t, "15:04", getTimeFormat("15:04"))
}

func TestSetLoggerReplacesGlobal(t *testing.T) {
	previous := GetLogger()
	t.Cleanup(func() { SetLogger(previous) })

	var buf bytes.Buffer
	SetLogger(NewWithWriter(&buf, Config{Format: "json"}))
	WithField("component", "test").Warn("replaced")

	assert.True(t, strings.Contains(buf.String(), `"component":"test"`))
}
