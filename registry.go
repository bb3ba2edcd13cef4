package scopegraph

import (
	"sync"
)

// Registry maps keys to producers. Class keys are compared by type
// identity, string keys by value, symbols by pointer.
type Registry struct {
	mu        sync.RWMutex
	producers map[any]*Producer
	order     []any
}

// DefaultRegistry is the process-wide registry used by containers created
// without WithRegistry.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		producers: make(map[any]*Producer, 32),
	}
}

// Register associates a producer with key. Registering a key again
// replaces the configuration of the existing producer, so lookups that
// already hold it see the new configuration.
//
//	reg.Register("clock", scopegraph.WithValue(clock), scopegraph.WithScope(scopegraph.ScopeSingleton))
func (r *Registry) Register(key any, opts ...ProducerOption) (*Producer, error) {
	cfg := ProducerConfig{Key: key}
	for _, opt := range opts {
		opt(&cfg)
	}
	return r.RegisterConfig(cfg)
}

// RegisterConfig registers a complete producer configuration.
func (r *Registry) RegisterConfig(cfg ProducerConfig) (*Producer, error) {
	if err := validKey(cfg.Key); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.producers[cfg.Key]; ok {
		if err := existing.replace(cfg); err != nil {
			return nil, err
		}
		return existing, nil
	}

	p, err := newProducer(cfg)
	if err != nil {
		return nil, err
	}
	r.producers[cfg.Key] = p
	r.order = append(r.order, cfg.Key)
	return p, nil
}

// Search returns the producer for keyOrProducer. A *Producer is returned
// as is; an unregistered key yields nil.
func (r *Registry) Search(keyOrProducer any) *Producer {
	if p, ok := keyOrProducer.(*Producer); ok {
		return p
	}
	if validKey(keyOrProducer) != nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.producers[keyOrProducer]
}

// Keys returns the registered keys in registration order.
func (r *Registry) Keys() []any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]any, len(r.order))
	copy(out, r.order)
	return out
}

// Reset removes every registration.
// This function is intended for testing purposes only.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers = make(map[any]*Producer, 32)
	r.order = nil
}

// Register registers key in the DefaultRegistry.
func Register(key any, opts ...ProducerOption) (*Producer, error) {
	return DefaultRegistry.Register(key, opts...)
}

// Lookup searches the DefaultRegistry.
func Lookup(keyOrProducer any) *Producer {
	return DefaultRegistry.Search(keyOrProducer)
}

// Provide registers the class key of T in reg, or in the DefaultRegistry
// when reg is nil.
//
//	scopegraph.Provide[*Session](nil, scopegraph.WithScope(scopegraph.ScopeContainer))
func Provide[T any](reg *Registry, opts ...ProducerOption) (*Producer, error) {
	if reg == nil {
		reg = DefaultRegistry
	}
	return reg.Register(TypeKey[T](), opts...)
}
