package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gg"

	"galaxygenerator/config"
)

// Init installs the default slog logger described by settings and routes
// gg's internal logging through it.
func Init(settings config.LoggingSettings) *slog.Logger {
	l := New(os.Stdout, settings)
	slog.SetDefault(l)
	gg.SetLogger(l.With("component", "gg"))

	l.With("component", "logger").Debug("Logger initialized",
		"level", settings.Level,
		"format", settings.Format,
	)
	return l
}

// New builds a logger writing to w without installing it.
func New(w io.Writer, settings config.LoggingSettings) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(settings.Level)}

	var handler slog.Handler
	if strings.EqualFold(settings.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
