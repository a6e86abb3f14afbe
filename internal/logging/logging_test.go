package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestJSONFormatWithRun(t *testing.T) {
	var buf bytes.Buffer
	logger := WithRun(NewWithWriter(&buf, "info", "json"), "R1")
	logger.Debug("hidden")
	logger.Info("event appended", "type", "agent_response")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "event appended", entry["msg"])
	assert.Equal(t, "R1", entry["run_id"])
	assert.Equal(t, "agent_response", entry["type"])
}

func TestTextFormatIsDefault(t *testing.T) {
	var buf bytes.Buffer
	WithTool(NewWithWriter(&buf, "debug", ""), "poll_debate").Debug("routed")
	assert.Contains(t, buf.String(), "tool=poll_debate")
	assert.Contains(t, buf.String(), "msg=routed")
}
