package compose

import "go.uber.org/zap"

type options struct {
	logger         *zap.Logger
	metrics        *Metrics
	cacheHierarchy bool
}

// Option configures a Catalog and the Registry it composes.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records resolution and rule activity in m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithHierarchyCache controls whether hierarchy answers are memoized by the
// composed registry. It is enabled by default.
func WithHierarchyCache(enabled bool) Option {
	return func(o *options) {
		o.cacheHierarchy = enabled
	}
}

func mergeOptions(opts []Option) options {
	o := options{
		logger:         zap.NewNop(),
		cacheHierarchy: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
