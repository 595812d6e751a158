package logging

import (
	"log/slog"
	"os"
)

var Log *slog.Logger

func init() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logHandler := slog.NewTextHandler(
		os.Stdout, &slog.HandlerOptions{Level: level})
	Log = slog.New(logHandler)
}
