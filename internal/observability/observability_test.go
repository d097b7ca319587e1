package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "")

	l.LogPlan("req-1", "fallback", 10, 8)

	var evt Event
	require.NoError(t, json.Unmarshal(buf.Bytes(), &evt))
	assert.Equal(t, EventTypePlan, evt.Type)
	assert.Equal(t, "req-1", evt.RequestID)
	assert.False(t, evt.Timestamp.IsZero())

	data, ok := evt.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fallback", data["source"])
	assert.EqualValues(t, 8, data["emails"])
}

func TestLogger_LLMEventsGoToFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, dir)

	l.LogLLM("req-2", "write", "prompt", "response", nil)
	l.LogFallback("req-2", "no model")

	raw, err := os.ReadFile(filepath.Join(dir, "llm.jsonl"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"type":"llm"`)

	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))
}

func TestLogger_RotatesLargeFile(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerTo(&bytes.Buffer{}, dir)
	l.maxSize = 10

	l.LogLLM("", "plan", "p", "first", nil)
	l.LogLLM("", "plan", "p", "second", nil)

	old, err := os.ReadFile(filepath.Join(dir, "llm.jsonl.old"))
	require.NoError(t, err)
	assert.Contains(t, string(old), "first")

	current, err := os.ReadFile(filepath.Join(dir, "llm.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(current), "second")
}

func TestLogger_NilIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.LogValidation("", false, nil)
		l.LogCost("", 1, 2, "m")
	})
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestID(ctx))

	generated := RequestID(WithRequestID(context.Background(), ""))
	assert.Len(t, generated, 36)

	assert.Empty(t, RequestID(context.Background()))
}

func TestStatusLine(t *testing.T) {
	now := time.Now()
	line := StatusLine(Snapshot{
		Stage:         StageWriting,
		ActiveTask:    "a rather long task description here",
		LastHeartbeat: now,
		Uptime:        "5s",
		Counters:      Counters{Plans: 3, Fallbacks: 1},
	}, now)

	assert.Contains(t, line, "HEALTHY")
	assert.Contains(t, line, "WRITING")
	assert.Contains(t, line, "a rather long task des...")
	assert.Contains(t, line, "plans 3 (fallback 1)")

	stale := StatusLine(Snapshot{LastHeartbeat: now.Add(-2 * time.Minute)}, now)
	assert.Contains(t, stale, "OFFLINE")
	assert.Contains(t, stale, "Waiting...")
}

func TestCount(t *testing.T) {
	before := GetStatus().Counters.Plans
	Count(func(c *Counters) { c.Plans++ })
	assert.Equal(t, before+1, GetStatus().Counters.Plans)
}
