package logger

import (
	"io"
	"log/slog"
	"os"
)

var log *slog.Logger

func init() {
	SetOutput(os.Stderr)
}

// SetOutput redirects all subsequent log lines to w.
func SetOutput(w io.Writer) {
	level := slog.LevelInfo
	if os.Getenv("CONFERENTE_DEBUG") == "true" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	handler := slog.NewTextHandler(w, opts)
	log = slog.New(handler)
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
