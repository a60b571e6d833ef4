package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON slog logger writing to stdout at level.
func New(level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, level)
}

func NewWithWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})).
		With("service", "donationpool")
}
