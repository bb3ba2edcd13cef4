package scopegraph

// Initializer is implemented by class-constructed values that need to
// resolve their own dependencies. OnBoot runs right after allocation, while
// the value's target container is on top of the resolution call path, so
// anything resolved through r lands relative to that container.
type Initializer interface {
	OnBoot(r *Resolver, args ...any) error
}

// Shutdowner is implemented by values that hold resources.
// OnShutdown is used as the destroy hook when the producer has none.
type Shutdowner interface {
	OnShutdown() error
}

// Injector resolves keys. Both *Container and *Resolver implement it.
type Injector interface {
	Resolve(key any, args ...any) (any, error)
	ResolveIn(scope Scope, key any, args ...any) (any, error)
}

// Factory builds a value. It receives the active resolver so it can
// resolve further dependencies in the same call path.
type Factory func(r *Resolver, args ...any) (any, error)

// DestroyHook releases a value owned by a container being destroyed.
type DestroyHook func(value any) error

// FallbackFunc is consulted when a key has no registered producer.
// It returns either a ready *Producer or a ProducerConfig to register.
type FallbackFunc func(key any) (Descriptor, error)

// Descriptor is a producer or a producer configuration.
type Descriptor interface {
	descriptor()
}
