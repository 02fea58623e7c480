package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the default logger. Debug records, which include the
// session cache diagnostics and HTTP dumps, are only emitted when verbose.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
