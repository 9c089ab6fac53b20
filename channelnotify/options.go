package channelnotify

import (
	"go.uber.org/zap"

	sigreceipts "github.com/srozzo/go-signal-receipts"
)

type options struct {
	logger *zap.Logger
	debug  bool
	core   []sigreceipts.Option
}

type Option func(*options)

// WithLogger sets the logger for the facility and its registry.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
		o.core = append(o.core, sigreceipts.WithLogger(l))
	}
}

func WithDebug(enabled bool) Option {
	return func(o *options) {
		o.debug = enabled
		o.core = append(o.core, sigreceipts.WithDebug(enabled))
	}
}

// WithRegistryOptions passes options through to the underlying registry,
// e.g. sigreceipts.WithSource or sigreceipts.WithObserver.
func WithRegistryOptions(opts ...sigreceipts.Option) Option {
	return func(o *options) { o.core = append(o.core, opts...) }
}
