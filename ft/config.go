package ft

import (
	"go.uber.org/zap"

	"github.com/wippyai/ftbind/registry"
)

// Config configures a Library and everything created from it.
type Config struct {
	// Registry tracks the library's resources. Nil uses registry.Default().
	Registry *registry.Registry

	// Logger receives lifecycle events. Nil uses the package logger.
	Logger *zap.Logger
}

func (c *Config) withDefaults() Config {
	var out Config
	if c != nil {
		out = *c
	}
	if out.Registry == nil {
		out.Registry = registry.Default()
	}
	if out.Logger == nil {
		out.Logger = Logger()
	}
	return out
}

// Option configures Open.
type Option func(*Config)

// WithRegistry tracks the library in r instead of the process-wide registry.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Config) {
		c.Registry = r
	}
}

// WithLogger sets the logger for the library tree.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
