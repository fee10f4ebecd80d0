package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_toLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected slog.Level
	}{
		{level: "debug", expected: slog.LevelDebug},
		{level: "DEBUG", expected: slog.LevelDebug},
		{level: "warn", expected: slog.LevelWarn},
		{level: "error", expected: slog.LevelError},
		{level: "info", expected: slog.LevelInfo},
		{level: "", expected: slog.LevelInfo},
		{level: "verbose", expected: slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, tc.expected, toLevel(tc.level))
		})
	}
}

func Test_newLogger_JSONWithRequestID(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := newLogger(&buf, "info", "json")
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "abc")

	// when
	log.DebugContext(ctx, "dropped")
	log.InfoContext(ctx, "kept")

	// then
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "abc", record["request_id"])
}

func Test_newLogger_Text(t *testing.T) {
	// given
	var buf bytes.Buffer
	log := newLogger(&buf, "warn", "text")

	// when
	log.Warn("careful", "key", "value")

	// then
	assert.Contains(t, buf.String(), "msg=careful")
	assert.Contains(t, buf.String(), "key=value")
}
