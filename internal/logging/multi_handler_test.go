package logging

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureHandler struct {
	level   slog.Level
	err     error
	handled []string
}

func (h *captureHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *captureHandler) Handle(_ context.Context, record slog.Record) error {
	h.handled = append(h.handled, record.Message)
	return h.err
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandlerRespectsSinkLevels(t *testing.T) {
	stdout := &captureHandler{level: slog.LevelInfo}
	db := &captureHandler{level: slog.LevelError}
	logger := slog.New(NewMultiHandler(stdout, db))

	logger.Info("started")
	logger.Error("boom")

	assert.Equal(t, []string{"started", "boom"}, stdout.handled)
	assert.Equal(t, []string{"boom"}, db.handled)
}

func TestMultiHandlerFailingSinkDoesNotStopOthers(t *testing.T) {
	failing := &captureHandler{level: slog.LevelInfo, err: errors.New("connection refused")}
	healthy := &captureHandler{level: slog.LevelInfo}
	m := NewMultiHandler(failing, healthy)

	record := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	err := m.Handle(context.Background(), record)

	assert.Error(t, err)
	assert.Equal(t, []string{"boom"}, healthy.handled, "remaining sinks still receive the record")
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, slog.LevelDebug, levelFromEnv())

	t.Setenv("LOG_LEVEL", "warn")
	assert.Equal(t, slog.LevelWarn, levelFromEnv())

	t.Setenv("LOG_LEVEL", "verbose")
	assert.Equal(t, slog.LevelInfo, levelFromEnv(), "unknown values fall back to info")

	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, slog.LevelInfo, levelFromEnv())
}
