package app

import (
	"io"
	"log/slog"
	"strings"
)

// newLogger builds the endfc logger. It does not set the global logger, so
// every App owns its own. Unknown levels fall back to info. Every record is
// tagged with app=endfc; packages below add their own component attribute.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(formatStr, "json") {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler).With("app", "endfc")
}
