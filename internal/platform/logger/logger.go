package logger

import (
	"log/slog"
	"os"
)

// New returns a text slog logger writing to stderr, leaving stdout for the
// run narrative and summaries.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
