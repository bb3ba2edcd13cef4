package scopegraph

import (
	"context"
	"reflect"
	"sync"
	"unsafe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Container is an ownership node. It owns the values constructed into it
// and the child containers extended from it, and borrows inherited values
// it must never destroy.
type Container struct {
	id     string
	parent *Container
	tree   *tree
	cfg    containerConfig
	log    *zap.Logger
	ctx    *ContainerContext

	children  []*Container
	detached  bool
	owned     map[*Producer]any
	order     []*Producer
	inherited map[*Producer]any
}

// New creates the root of a new container tree.
func New(opts ...Option) *Container {
	cfg := containerConfig{
		registry: DefaultRegistry,
		logger:   zap.NewNop(),
		newID:    uuid.NewString,
		base:     context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newContainer(nil, &tree{}, cfg, NewContainerContext(cfg.base))
}

func newContainer(parent *Container, t *tree, cfg containerConfig, ctx *ContainerContext) *Container {
	id := cfg.newID()
	return &Container{
		id:        id,
		parent:    parent,
		tree:      t,
		cfg:       cfg,
		log:       cfg.logger.With(zap.String("container", id)),
		ctx:       ctx,
		owned:     make(map[*Producer]any),
		inherited: make(map[*Producer]any),
	}
}

// Extend creates a child container owned by c. It has no resolution side
// effects.
func (c *Container) Extend() *Container {
	release := c.tree.acquire()
	defer release()
	return c.extend()
}

func (c *Container) extend() *Container {
	child := newContainer(c, c.tree, c.cfg, NewContainerContext(c.ctx))
	c.children = append(c.children, child)
	c.log.Debug("container extended", zap.String("child", child.id))
	return child
}

// detach removes c from its parent's children and drops the parent link.
// A detached container is no longer part of any tree, but it is not a
// root either.
func (c *Container) detach() {
	if c.parent == nil {
		return
	}
	siblings := c.parent.children
	for i, child := range siblings {
		if child == c {
			c.parent.children = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	c.parent = nil
	c.detached = true
}

// discard detaches a layer opened for a construction that did not settle.
func (c *Container) discard() {
	c.detach()
	c.ctx.stop()
}

// Configure updates the configuration of c. Containers extended from c
// afterwards inherit it; existing children keep theirs.
func (c *Container) Configure(opts ...Option) {
	release := c.tree.acquire()
	defer release()
	for _, opt := range opts {
		opt(&c.cfg)
	}
	c.log = c.cfg.logger.With(zap.String("container", c.id))
}

// ID returns the debug identifier of c.
func (c *Container) ID() string { return c.id }

// Parent returns the container owning c, or nil for a root and for a
// destroyed container.
func (c *Container) Parent() *Container {
	release := c.tree.acquire()
	defer release()
	return c.parent
}

// Root returns the root of the tree c belongs to. A destroyed container is
// its own root.
func (c *Container) Root() *Container {
	release := c.tree.acquire()
	defer release()
	return c.root()
}

func (c *Container) root() *Container {
	root := c
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// IsRoot reports whether c is the root of its tree.
func (c *Container) IsRoot() bool {
	release := c.tree.acquire()
	defer release()
	return c.parent == nil && !c.detached
}

// Registry returns the registry c resolves producers from.
func (c *Container) Registry() *Registry {
	release := c.tree.acquire()
	defer release()
	return c.cfg.registry
}

// Context returns the context of c. It is cancelled when c is destroyed;
// a destroyed root gets a fresh context carrying the same values.
func (c *Container) Context() *ContainerContext {
	release := c.tree.acquire()
	defer release()
	return c.ctx
}

// SetValue stores a value visible through the context of c and of every
// container extended from it.
func (c *Container) SetValue(key, val any) {
	release := c.tree.acquire()
	defer release()
	c.ctx.set(key, val)
}

// Children returns the containers c owns, in creation order.
func (c *Container) Children() []*Container {
	release := c.tree.acquire()
	defer release()
	out := make([]*Container, len(c.children))
	copy(out, c.children)
	return out
}

// ChildCount returns the number of child containers.
func (c *Container) ChildCount() int {
	release := c.tree.acquire()
	defer release()
	return len(c.children)
}

// OwnedCount returns the number of values c owns.
func (c *Container) OwnedCount() int {
	release := c.tree.acquire()
	defer release()
	return len(c.owned)
}

// InheritedCount returns the number of values c borrows.
func (c *Container) InheritedCount() int {
	release := c.tree.acquire()
	defer release()
	return len(c.inherited)
}

// IsEmpty reports whether c owns neither values nor containers.
func (c *Container) IsEmpty() bool {
	release := c.tree.acquire()
	defer release()
	return c.isEmpty()
}

func (c *Container) isEmpty() bool {
	return len(c.owned) == 0 && len(c.children) == 0
}

// Owned returns the value c owns for keyOrProducer.
func (c *Container) Owned(keyOrProducer any) (any, bool) {
	release := c.tree.acquire()
	defer release()
	p := c.cfg.registry.Search(keyOrProducer)
	if p == nil {
		return nil, false
	}
	v, ok := c.owned[p]
	return v, ok
}

// Inherited returns the value c borrows for keyOrProducer.
func (c *Container) Inherited(keyOrProducer any) (any, bool) {
	release := c.tree.acquire()
	defer release()
	p := c.cfg.registry.Search(keyOrProducer)
	if p == nil {
		return nil, false
	}
	v, ok := c.inherited[p]
	return v, ok
}

// OwnedProducers returns the producers of the values c owns, in the order
// they were constructed.
func (c *Container) OwnedProducers() []*Producer {
	release := c.tree.acquire()
	defer release()
	out := make([]*Producer, len(c.order))
	copy(out, c.order)
	return out
}

// Walk calls fn for c and every descendant, depth first, parents before
// children.
func (c *Container) Walk(fn func(c *Container, depth int)) {
	release := c.tree.acquire()
	defer release()
	c.walk(fn, 0)
}

func (c *Container) walk(fn func(c *Container, depth int), depth int) {
	fn(c, depth)
	for _, child := range c.children {
		child.walk(fn, depth+1)
	}
}

// producerFor finds the producer for key, falling back to the configured
// FallbackFunc.
func (c *Container) producerFor(key any) (*Producer, error) {
	if p := c.cfg.registry.Search(key); p != nil {
		return p, nil
	}
	if c.cfg.fallback == nil {
		c.log.Debug("producer not found", zap.String("key", keyString(key)))
		return nil, &ProducerNotFoundError{Key: keyString(key)}
	}

	d, err := c.cfg.fallback(key)
	if err != nil {
		return nil, err
	}
	switch d := d.(type) {
	case *Producer:
		if d == nil {
			return nil, &ProducerNotFoundError{Key: keyString(key)}
		}
		return d, nil
	case ProducerConfig:
		if d.Key == nil {
			d.Key = key
		}
		return c.cfg.registry.RegisterConfig(d)
	case *ProducerConfig:
		if d == nil {
			return nil, &ProducerNotFoundError{Key: keyString(key)}
		}
		cfg := *d
		if cfg.Key == nil {
			cfg.Key = key
		}
		return c.cfg.registry.RegisterConfig(cfg)
	default:
		return nil, &ProducerNotFoundError{Key: keyString(key)}
	}
}

// backrefs maps produced values to their owning container. Entries are
// removed when the owning container destroys the value, so the table never
// keeps a container or value alive past its destroy.
var backrefs = struct {
	sync.RWMutex
	owners map[any]*Container
}{owners: make(map[any]*Container)}

// mapRef identifies a map value. Maps are not comparable, so the table
// keys them by type and by the address of their header.
type mapRef struct {
	t   reflect.Type
	ptr unsafe.Pointer
}

// refKey returns the table key for v. Pointers and channels are their own
// key, maps use a mapRef; values without an identity have none.
func refKey(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return v, !rv.IsNil()
	case reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
		return mapRef{t: rv.Type(), ptr: rv.UnsafePointer()}, true
	default:
		return nil, false
	}
}

// attachRef records c as the owner of v unless v already has one.
func attachRef(v any, c *Container) {
	key, ok := refKey(v)
	if !ok {
		return
	}
	backrefs.Lock()
	defer backrefs.Unlock()
	if _, ok := backrefs.owners[key]; !ok {
		backrefs.owners[key] = c
	}
}

// releaseRef clears the back-reference of v if it still points at c.
func releaseRef(v any, c *Container) {
	key, ok := refKey(v)
	if !ok {
		return
	}
	backrefs.Lock()
	defer backrefs.Unlock()
	if backrefs.owners[key] == c {
		delete(backrefs.owners, key)
	}
}

// Search returns the container owning value, or nil when the value carries
// no back-reference. Pointer, channel and map values are tracked; pointers
// to zero-size types share one address and cannot be told apart.
func Search(value any) *Container {
	key, ok := refKey(value)
	if !ok {
		return nil
	}
	backrefs.RLock()
	defer backrefs.RUnlock()
	return backrefs.owners[key]
}

// Bind returns the container owning value.
func Bind(value any) (*Container, error) {
	if c := Search(value); c != nil {
		return c, nil
	}
	return nil, &OwningContainerNotFoundError{Type: typeName(value)}
}
