package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNew_WritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "stream").WithField("room", "lobby").WithError(errors.New("boom"))
	l.Infof("received %d frames", 3)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "stream", lines[0]["component"])
	assert.Equal(t, "lobby", lines[0]["room"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "received 3 frames", lines[0]["message"])
	assert.Equal(t, "info", lines[0]["level"])
}

func TestLogEvent_DefaultCarriesContext(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "bot").LogEvent("warn", "join_failed", "botdev", "", "namerequired")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "join_failed", lines[0]["event"])
	assert.Equal(t, "botdev", lines[0]["room"])
	assert.NotContains(t, lines[0], "user")
	assert.Equal(t, "join failed: namerequired", lines[0]["message"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestLogEvent_ChatIsCompact(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "bot").LogEvent("info", "chat", "lobby", " xfix", "hello")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0]["message"], "xfix")
	assert.Contains(t, lines[0]["message"], "hello")
	assert.NotContains(t, lines[0], "event")
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
	// must not panic
	OrNop(nil).Errorf("discarded %s", "message")
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.False(t, cfg.LogToFile)
	assert.Equal(t, 10, cfg.MaxSize)
}
