package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&buf, "warn")
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, "chatty")
	require.Error(t, err)
}

func TestNewJSON_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewJSON(&buf, "", "image-server")
	require.NoError(t, err)

	l.WithField("path", "/a.png").Info("served")

	var row map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &row))
	assert.Equal(t, "served", row["message"])
	assert.Equal(t, "info", row["level"])
	assert.Equal(t, "image-server", row["service"])
	assert.Equal(t, "/a.png", row["path"])
	assert.Contains(t, row, "timestamp")
}
