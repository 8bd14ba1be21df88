package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("IST", 5*3600+1800)

	Component(New(&buf, loc), "cache").Warn("cache get failed", "key", "books:list:all")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "cache get failed", entry["msg"])
	assert.Equal(t, "cache", entry["component"])
	assert.Equal(t, "books:list:all", entry["key"])
	assert.NotContains(t, entry, "time")

	ts, err := time.Parse(time.RFC3339Nano, entry["ts"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Equal(t, 5*3600+1800, offset)
}

func TestNewNilLocation(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, nil).Info("hello")
	assert.Contains(t, buf.String(), `"ts":"`)
}
