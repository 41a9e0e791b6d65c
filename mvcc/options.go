package mvcc

import (
	"log/slog"
	"os"
)

type config struct {
	logger *slog.Logger
}

func defaultConfig() config {
	return config{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
}

// Option is a functional option for UnsafeNew.
type Option func(*config)

// WithLogger sets a custom slog.Logger. Commit events are logged at
// Debug; nothing on the per-entry contention path is logged, since it
// sits on the hot path of every GetMut/Remove.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithLogLevel sets the minimum level of the default text-handler
// logger. Both this and WithLogger replace the logger, so when both are
// passed, whichever comes last in the order given to UnsafeNew wins.
func WithLogLevel(level slog.Level) Option {
	return func(c *config) {
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
}
