// Package options carries the cross-cutting configuration shared by
// the bridge and the platform adapters.
package options

import (
	"log/slog"
	"time"
)

type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

type Option func(*Options)

func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithTimeout sets a default ceremony timeout applied when the request
// carries none. Enforcement is native-platform dependent.
func WithTimeout(timeout time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = timeout
	}
}

func NewOptions(opts ...Option) *Options {
	oo := &Options{
		Logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(oo)
	}

	return oo
}
