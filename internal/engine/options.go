package engine

import (
	"github.com/limit-importer/backend/internal/runlog"
	"go.uber.org/zap"
)

type options struct {
	policy LinkPolicy
	sink   runlog.Sink
	logger *zap.Logger
}

// Option configures an Engine or Applier.
type Option func(*options)

// WithLinkPolicy overrides how linked channels are detected.
func WithLinkPolicy(p LinkPolicy) Option {
	return func(o *options) {
		if p != nil {
			o.policy = p
		}
	}
}

// WithRunLog sends user-facing progress lines to sink.
func WithRunLog(sink runlog.Sink) Option {
	return func(o *options) {
		if sink != nil {
			o.sink = sink
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		policy: CapabilityPolicy{},
		sink:   runlog.Discard,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
