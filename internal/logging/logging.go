package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Level is shared by every logger built here so the level can be changed at
// runtime when the config file is reloaded.
var Level = new(slog.LevelVar)

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// New builds a logger writing to w. format is "json" or "console".
func New(w io.Writer, level, format string) *slog.Logger {
	SetLevel(level)
	opts := &slog.HandlerOptions{Level: Level}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// SetLevel updates the shared level; unknown names fall back to info.
func SetLevel(level string) {
	Level.Set(ParseLevel(level))
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
