package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevelFollowsMode(t *testing.T) {
	var buf bytes.Buffer

	release := New(&buf, "release")
	release.Debug("hidden")
	assert.Zero(t, buf.Len())

	release.Info("shown", "owner", "abc")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "abc", entry["owner"])

	buf.Reset()
	debug := New(&buf, "debug")
	debug.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "source")
}
