// Package observability provides logging and metrics.
package observability

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the application-wide structured logger.
var Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetOutput redirects the application logger, e.g. to io.Discard in tests.
func SetOutput(w io.Writer) {
	Logger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(Logger)
}
