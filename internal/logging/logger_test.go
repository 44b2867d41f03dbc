package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" error ": slog.LevelError,
		"warning": slog.LevelWarn,
		"":        slog.LevelWarn,
		"verbose": slog.LevelWarn,
	}
	for name, want := range tests {
		assert.Equal(t, want, parseLevel(name), name)
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("default hides info and time", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, false, "")
		log.Info("hidden")
		log.Warn("shown", "step", "Strategy")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "msg=shown step=Strategy")
		assert.NotContains(t, out, "time=")
	})

	t.Run("debug flag wins over env", func(t *testing.T) {
		var buf bytes.Buffer
		log := newLogger(&buf, true, "error")
		log.Debug("transition", "to", "step_submitted")

		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "time=")
	})
}
