package logger

import (
	"log/slog"
	"os"
)

// New returns the application logger. LOG_FORMAT=json switches to the JSON
// handler for log shippers; text is the default for local runs.
func New() *slog.Logger {
	var handler slog.Handler
	if os.Getenv("LOG_FORMAT") == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	return slog.New(handler)
}
