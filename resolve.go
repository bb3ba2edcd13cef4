package scopegraph

import (
	"fmt"

	"go.uber.org/zap"
)

// Resolver carries the call path of one top-level resolution. Constructors
// receive it and resolve their dependencies through it, so nested
// resolutions see the containers the outer call has opened so far.
type Resolver struct {
	origin   *Container
	path     []*Container
	active   map[*Producer][]*Container
	building []*Producer
	closed   bool
}

func newResolver(origin *Container) *Resolver {
	return &Resolver{
		origin: origin,
		active: make(map[*Producer][]*Container),
	}
}

// Resolve resolves key relative to the current call path.
func (r *Resolver) Resolve(key any, args ...any) (any, error) {
	return r.ResolveIn("", key, args...)
}

// ResolveIn resolves key with scope instead of the producer's own scope.
// An empty scope means the producer's scope.
func (r *Resolver) ResolveIn(scope Scope, key any, args ...any) (any, error) {
	if scope != "" && !scope.Valid() {
		return nil, &InvalidProducerError{Key: keyString(key), Reason: "unknown scope " + string(scope)}
	}
	if r.closed {
		return r.origin.resolve(key, scope, args)
	}
	return r.resolve(r.origin, key, scope, args)
}

// Container returns the container on top of the call path, or the
// container the resolution started from.
func (r *Resolver) Container() *Container {
	if top := r.top(); top != nil {
		return top
	}
	return r.origin
}

// Origin returns the container the top-level resolution was called on.
func (r *Resolver) Origin() *Container { return r.origin }

// Depth returns the number of containers on the call path.
func (r *Resolver) Depth() int { return len(r.path) }

func (r *Resolver) top() *Container {
	if len(r.path) == 0 {
		return nil
	}
	return r.path[len(r.path)-1]
}

func (r *Resolver) push(c *Container) {
	r.path = append(r.path, c)
}

// pop removes the most recent occurrence of c from the call path.
func (r *Resolver) pop(c *Container) {
	for i := len(r.path) - 1; i >= 0; i-- {
		if r.path[i] == c {
			r.path = append(r.path[:i], r.path[i+1:]...)
			return
		}
	}
}

// place computes the target container for scope. pushed reports whether a
// new container was opened and pushed onto the call path.
func (r *Resolver) place(caller *Container, scope Scope) (target *Container, pushed bool) {
	top := r.top()
	base := top
	if base == nil {
		base = caller
	}

	switch scope {
	case ScopeSingleton:
		return caller.root(), false
	case ScopeContainer:
		target = base.extend()
	case ScopeScoped:
		if top != nil {
			return top, false
		}
		target = caller.extend()
	default:
		return base, false
	}

	r.push(target)
	return target, true
}

// converge looks for a value of p owned by a container on the call path or
// by a direct child of one, newest path entry first. The active index only
// holds containers this resolver constructed into, which covers every
// container reachable that way.
func (r *Resolver) converge(p *Producer) (any, bool) {
	candidates := r.active[p]
	if len(candidates) == 0 {
		return nil, false
	}
	for i := len(r.path) - 1; i >= 0; i-- {
		pc := r.path[i]
		for _, x := range candidates {
			if x == pc {
				if v, ok := x.owned[p]; ok {
					return v, true
				}
			}
		}
		for _, x := range candidates {
			if x.parent == pc {
				if v, ok := x.owned[p]; ok {
					return v, true
				}
			}
		}
	}
	return nil, false
}

func (r *Resolver) cycle(p *Producer) error {
	for _, b := range r.building {
		if b == p {
			chain := make([]string, 0, len(r.building)+1)
			for _, bp := range r.building {
				chain = append(chain, bp.String())
			}
			chain = append(chain, p.String())
			return &CircularDependencyError{Chain: chain}
		}
	}
	return nil
}

func (r *Resolver) build(p *Producer, args []any) (any, error) {
	r.building = append(r.building, p)
	defer func() { r.building = r.building[:len(r.building)-1] }()
	return p.create(r, args)
}

func (r *Resolver) resolve(caller *Container, key any, scope Scope, args []any) (any, error) {
	p, err := caller.producerFor(key)
	if err != nil {
		return nil, err
	}
	if scope == "" {
		scope = p.Scope()
	}

	target, pushed := r.place(caller, scope)
	settled := false
	if pushed {
		defer func() {
			r.pop(target)
			if !settled && target.isEmpty() {
				target.discard()
			}
		}()
	}

	if v, ok := target.inherited[p]; ok {
		settled = true
		return v, nil
	}
	if v, ok := target.owned[p]; ok {
		settled = true
		return v, nil
	}

	if scope.opensLayer() {
		if v, ok := r.converge(p); ok {
			settled = true
			target.inherited[p] = v
			attachRef(v, target)
			target.log.Debug("value inherited",
				zap.String("key", p.String()),
				zap.Stringer("scope", scope),
			)
			return v, nil
		}
	}

	if err := r.cycle(p); err != nil {
		return nil, err
	}

	v, err := r.build(p, args)
	if err != nil {
		target.log.Debug("construction failed", zap.String("key", p.String()), zap.Error(err))
		return nil, &InitializationError{Key: p.String(), Err: err}
	}

	settled = true
	target.owned[p] = v
	target.order = append(target.order, p)
	p.track(target)
	r.active[p] = append(r.active[p], target)
	attachRef(v, target)

	target.log.Debug("value constructed",
		zap.String("key", p.String()),
		zap.Stringer("scope", scope),
		zap.Int("depth", len(r.path)),
	)
	return v, nil
}

// Resolve returns the value for keyOrProducer, constructing it and any
// dependencies it resolves into the containers their scopes select.
// Called from a constructor on the goroutine that is already resolving in
// this tree, it continues the same call path.
func (c *Container) Resolve(keyOrProducer any, args ...any) (any, error) {
	return c.resolve(keyOrProducer, "", args)
}

// ResolveIn resolves keyOrProducer with scope instead of the producer's
// own scope.
func (c *Container) ResolveIn(scope Scope, keyOrProducer any, args ...any) (any, error) {
	if !scope.Valid() {
		return nil, &InvalidProducerError{Key: keyString(keyOrProducer), Reason: "unknown scope " + string(scope)}
	}
	return c.resolve(keyOrProducer, scope, args)
}

func (c *Container) resolve(key any, scope Scope, args []any) (any, error) {
	release := c.tree.acquire()
	defer release()

	r := c.tree.resolver
	if r == nil {
		r = newResolver(c)
		c.tree.resolver = r
		defer func() {
			r.closed = true
			c.tree.resolver = nil
		}()
	}
	return r.resolve(c, key, scope, args)
}

// Get returns an already resolved value without constructing anything.
// Singletons are looked up in the root; container-scoped values in the
// direct children of c first; everything else in c itself.
func (c *Container) Get(keyOrProducer any) (any, error) {
	release := c.tree.acquire()
	defer release()

	p := c.cfg.registry.Search(keyOrProducer)
	if p == nil {
		return nil, &ProducerNotFoundError{Key: keyString(keyOrProducer)}
	}

	search := c
	switch p.Scope() {
	case ScopeSingleton:
		search = c.root()
	case ScopeContainer:
		for _, child := range c.children {
			if v, ok := child.owned[p]; ok {
				return v, nil
			}
			if v, ok := child.inherited[p]; ok {
				return v, nil
			}
		}
	}

	if v, ok := search.owned[p]; ok {
		return v, nil
	}
	if v, ok := search.inherited[p]; ok {
		return v, nil
	}
	return nil, &InjectionNotFoundError{Key: keyString(keyOrProducer)}
}

// Resolve is a generic helper that resolves key and asserts the result:
//
//	repo, err := scopegraph.Resolve[*Repo](c, "repo")
func Resolve[T any](in Injector, key any, args ...any) (T, error) {
	var zero T
	v, err := in.Resolve(key, args...)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Expected: TypeKey[T]().String(), Got: typeName(v)}
	}
	return out, nil
}

// Inject resolves the class key of T. It is the usual way for OnBoot to
// pull in dependencies:
//
//	func (s *Service) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
//		s.repo, err = scopegraph.Inject[*Repo](r)
//		return err
//	}
func Inject[T any](in Injector, args ...any) (T, error) {
	return Resolve[T](in, TypeKey[T](), args...)
}

// MustInject is like Inject but panics on error.
func MustInject[T any](in Injector, args ...any) T {
	v, err := Inject[T](in, args...)
	if err != nil {
		panic(fmt.Sprintf("scopegraph: Inject[%s]: %v", TypeKey[T](), err))
	}
	return v
}
