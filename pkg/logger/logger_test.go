package logger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	return out
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "order-service", func(context.Context) string { return "abc123" })

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "order created", "order_id", "o-1", "user_id", 7)
	log.Error(context.Background(), "boom", "error", "bad thing")
	require.NoError(t, log.Sync())

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)

	assert.Equal(t, "info", recs[0]["level"])
	assert.Equal(t, "order created", recs[0]["msg"])
	assert.Equal(t, "order-service", recs[0]["service"])
	assert.Equal(t, "abc123", recs[0]["trace_id"])
	assert.Equal(t, "o-1", recs[0]["order_id"])
	assert.EqualValues(t, 7, recs[0]["user_id"])

	assert.Equal(t, "error", recs[1]["level"])
	assert.Equal(t, "bad thing", recs[1]["error"])
}

func TestLoggerWithoutTraceFn(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelDebug, "svc", nil)
	log.Debug(context.Background(), "hello")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	_, ok := recs[0]["trace_id"]
	assert.False(t, ok)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Info(context.Background(), "discarded", "k", "v")
}
