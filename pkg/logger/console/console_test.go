package console

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Format: "json", Output: &buf})

	l.Info("[Index] Built", "count", 3)

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "[Index] Built", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.EqualValues(t, 3, line["count"])
}

func TestConsoleLogger_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Format: "logfmt", Output: &buf})
	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l = NewConsoleLogger(ConsoleLoggerParams{Debug: true, Format: "logfmt", Output: &buf})
	l.Debug("shown", "file", "a.pdf")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "file=a.pdf")
}

func TestConsoleLogger_Prefix(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Prefix: "docgraph", Output: &buf})
	l.Warn("careful")
	out := buf.String()
	assert.True(t, strings.Contains(out, "docgraph"), out)
	assert.Contains(t, out, "careful")
}
