package scopegraph

import (
	"context"

	"go.uber.org/zap"
)

// ProducerOption configures a producer during registration or override.
type ProducerOption func(*ProducerConfig)

// WithScope sets the [Scope] of the producer. The default is
// [ScopeTransient].
func WithScope(s Scope) ProducerOption {
	return func(c *ProducerConfig) {
		c.Scope = s
	}
}

// WithStrategy forces the construction strategy instead of inferring it.
func WithStrategy(s Strategy) ProducerOption {
	return func(c *ProducerConfig) {
		c.Strategy = s
	}
}

// WithFactory builds values with f.
func WithFactory(f Factory) ProducerOption {
	return func(c *ProducerConfig) {
		c.Factory = f
	}
}

// WithValue makes the producer return v on every construction.
func WithValue(v any) ProducerOption {
	return func(c *ProducerConfig) {
		c.Value = v
	}
}

// WithDestroy sets the hook run when a container owning a value of this
// producer is destroyed.
func WithDestroy(h DestroyHook) ProducerOption {
	return func(c *ProducerConfig) {
		c.Destroy = h
	}
}

// WithMeta attaches arbitrary metadata to the producer.
func WithMeta(meta any) ProducerOption {
	return func(c *ProducerConfig) {
		c.Meta = meta
	}
}

// containerConfig is shared by a container and the children it extends.
type containerConfig struct {
	registry *Registry
	fallback FallbackFunc
	logger   *zap.Logger
	newID    func() string
	base     context.Context
}

// Option configures a container.
type Option func(*containerConfig)

// WithRegistry resolves producers from reg instead of [DefaultRegistry].
func WithRegistry(reg *Registry) Option {
	return func(c *containerConfig) {
		c.registry = reg
	}
}

// WithFallback installs a fallback used for unregistered keys.
func WithFallback(f FallbackFunc) Option {
	return func(c *containerConfig) {
		c.fallback = f
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *containerConfig) {
		c.logger = l
	}
}

// WithIDGenerator replaces the debug id generator.
func WithIDGenerator(f func() string) Option {
	return func(c *containerConfig) {
		c.newID = f
	}
}

// WithContext sets the parent of the root container's context.
// It only has an effect on [New].
func WithContext(ctx context.Context) Option {
	return func(c *containerConfig) {
		c.base = ctx
	}
}
