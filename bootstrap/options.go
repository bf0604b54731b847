package bootstrap

import (
	"time"

	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/store"
)

// defaultSweepInterval is how often expired sessions and token metadata
// are cleaned up unless overridden.
const defaultSweepInterval = 15 * time.Minute

// Option configures the Core during assembly.
type Option func(*coreOptions)

type coreOptions struct {
	logger        *logger.Logger
	store         store.Store
	sweepInterval time.Duration
}

func resolveOptions(opts []Option) *coreOptions {
	o := &coreOptions{sweepInterval: defaultSweepInterval}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger. Without it the global logger is
// initialized from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *coreOptions) { o.logger = l }
}

// WithStore injects the backing store. Without it the Core uses the
// in-memory store, which is only suitable for tests and single-process
// deployments.
func WithStore(s store.Store) Option {
	return func(o *coreOptions) { o.store = s }
}

// WithSweepInterval overrides how often expired sessions and token
// metadata are swept. Zero disables the background sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(o *coreOptions) { o.sweepInterval = d }
}
