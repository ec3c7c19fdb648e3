package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON output keeps log lines machine-readable
// for whatever ships them.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
