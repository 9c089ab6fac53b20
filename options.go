package sigreceipts

import "go.uber.org/zap"

const defaultSemaphoreLimit = 64

type options struct {
	logger   *zap.Logger
	debug    bool
	policy   Policy
	source   Source
	semLimit int
	observer Observer
}

func defaultOptions() options {
	return options{
		logger:   zap.NewNop(),
		policy:   defaultPolicy(),
		source:   OSSource{},
		semLimit: defaultSemaphoreLimit,
		observer: nopObserver{},
	}
}

type Option func(*options)

func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}

func WithDebug(enabled bool) Option {
	return func(o *options) { o.debug = enabled }
}

// WithSource replaces the OS signal-registration interface. Tests use it to
// inject deliveries and registration failures.
func WithSource(s Source) Option {
	return func(o *options) {
		if s != nil {
			o.source = s
		}
	}
}

// WithSemaphoreLimit bounds the wake semaphore's value. Posts beyond the
// limit are dropped; counts are unaffected.
func WithSemaphoreLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.semLimit = n
		}
	}
}

func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
