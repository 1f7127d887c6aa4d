package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("dev", ""))
	assert.Equal(t, slog.LevelInfo, parseLevel("production", ""))
	assert.Equal(t, slog.LevelWarn, parseLevel("prod", "WARNING"))
	assert.Equal(t, slog.LevelError, parseLevel("dev", " error "))
	assert.Equal(t, slog.LevelDebug, parseLevel("prod", "debug"))
}

func TestNewRespectsLevel(t *testing.T) {
	l := New("prod", "")
	assert.False(t, l.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
}
