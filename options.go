package vecknn

import (
	"log/slog"
	"time"

	"github.com/hupe1980/vecknn/blobstore"
	"github.com/hupe1980/vecknn/internal/compress"
)

type options struct {
	store            blobstore.Store
	codec            compress.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	pruning          bool
	parallelism      int
	nestedK          bool
	now              func() time.Time
}

// Option configures a Runner.
type Option func(*options)

// WithStore sets where data files are read from and predictions written to.
// The default is the current directory on the local file system.
func WithStore(s blobstore.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithCodec sets the compression of data and prediction files when the
// configuration does not name one.
func WithCodec(c compress.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecknn.BasicMetricsCollector{}
//	r := vecknn.New(vecknn.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithPruning enables or disables origin-distance pruning in the k-NN
// classifier. A configuration with no_pruning set disables it regardless.
func WithPruning(enabled bool) Option {
	return func(o *options) {
		o.pruning = enabled
	}
}

// WithParallelism sets how many sweep values are evaluated concurrently,
// taking precedence over the configured parallelism when positive.
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithNestedK repeats every radius of a D-sweep once per K. A configuration
// with nested_k set enables it regardless.
func WithNestedK(enabled bool) Option {
	return func(o *options) {
		o.nestedK = enabled
	}
}

// WithClock sets the clock used to seed unseeded runs.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		store:            blobstore.NewLocalStore("."),
		codec:            compress.None,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		pruning:          true,
		now:              time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
