package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHandlerInjectsRunID(t *testing.T) {
	var buf bytes.Buffer
	handler := &runHandler{Handler: slog.NewJSONHandler(&buf, nil)}
	logger := slog.New(handler)

	ctx := WithRunID(context.Background(), "run-42")
	logger.InfoContext(ctx, "document parsed", slog.String("document", "fy25.xlsx"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "run-42", record["run_id"])
	assert.Equal(t, "fy25.xlsx", record["document"])
}

func TestRunHandlerWithoutRunID(t *testing.T) {
	var buf bytes.Buffer
	handler := &runHandler{Handler: slog.NewJSONHandler(&buf, nil)}
	logger := slog.New(handler)

	logger.InfoContext(context.Background(), "no run context")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	_, present := record["run_id"]
	assert.False(t, present)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.in), tt.in)
	}
}

func TestGetRunID(t *testing.T) {
	assert.Equal(t, "", GetRunID(context.Background()))
	ctx := WithRunID(context.Background(), "abc")
	assert.Equal(t, "abc", GetRunID(ctx))
}
