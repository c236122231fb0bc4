package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger

// Init initializes the global slog logger with a text handler at Info level.
// Sink and level can be overridden via environment variables for tests and
// production (CIVICDESK_LOG_SINK, CIVICDESK_LOG_LEVEL).
func Init() {
	InitWithLevel("")
}

// InitWithLevel initializes the global logger honoring the provided level
// string ("debug", "info", "warn", "error"). If level is empty it falls back
// to the CIVICDESK_LOG_LEVEL environment variable.
func InitWithLevel(level string) {
	sink := os.Getenv("CIVICDESK_LOG_SINK") // e.g. "file:/path/to/log"
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("CIVICDESK_LOG_LEVEL")))
	}
	var lv slog.Level
	switch lvl {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	if strings.HasPrefix(sink, "file:") {
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err == nil {
			Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lv}))
			return
		}
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
	}
	Log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}

func ensure() *slog.Logger {
	if Log == nil {
		InitWithLevel("")
	}
	return Log
}

// Debug logs at debug level with structured key/value pairs.
func Debug(event string, args ...any) { ensure().Debug(event, args...) }

// Info logs at info level with structured key/value pairs.
func Info(event string, args ...any) { ensure().Info(event, args...) }

// Warn logs at warn level with structured key/value pairs.
func Warn(event string, args ...any) { ensure().Warn(event, args...) }

// Error logs at error level with structured key/value pairs.
func Error(event string, args ...any) { ensure().Error(event, args...) }
