package main

import (
	"io"
	"log/slog"
	"os"
)

// setupLogger builds the process logger: text records to stderr plus an
// append-only logfile. Debug mode lowers the level for both sinks.
func setupLogger(logPath string, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	w := io.Writer(os.Stderr)
	if f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		w = io.MultiWriter(os.Stderr, f)
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
