package util

import (
	"log/slog"
	"os"
)

// NewLogger returns the process-wide logger: debug-level text output in
// development, info-level JSON elsewhere. Every record is tagged with
// the service name so the two binaries are distinguishable in shared
// log streams.
func NewLogger(env string) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "teamspace")
}
