package scopegraph

import (
	"reflect"
	"sync"
)

// Strategy is how a producer constructs its values.
type Strategy string

// Available construction strategies
const (
	// StrategyClass allocates the struct behind a pointer type key and runs
	// its OnBoot when it implements Initializer
	StrategyClass Strategy = "class"
	// StrategyFactory calls the configured Factory
	StrategyFactory Strategy = "factory"
	// StrategyConstant returns the configured Value
	StrategyConstant Strategy = "constant"
)

// ProducerConfig describes a producer. It is what registration options
// build, and what a FallbackFunc may return to register a key on the fly.
type ProducerConfig struct {
	Key      any
	Scope    Scope
	Strategy Strategy
	Factory  Factory
	Value    any
	Destroy  DestroyHook
	Meta     any
}

func (ProducerConfig) descriptor() {}

// normalize fills in defaults and infers the strategy.
func (c ProducerConfig) normalize() (ProducerConfig, error) {
	key := keyString(c.Key)

	if c.Scope == "" {
		c.Scope = ScopeTransient
	}
	if !c.Scope.Valid() {
		return c, &InvalidProducerError{Key: key, Reason: "unknown scope " + string(c.Scope)}
	}

	if c.Factory != nil && c.Value != nil {
		return c, &InvalidProducerError{Key: key, Reason: "both a factory and a value are configured"}
	}

	switch c.Strategy {
	case "":
		switch {
		case c.Factory != nil:
			c.Strategy = StrategyFactory
		case c.Value != nil:
			c.Strategy = StrategyConstant
		default:
			if _, ok := c.Key.(reflect.Type); !ok {
				return c, &InvalidProducerError{Key: key, Reason: "no construction strategy: provide a factory, a value or a type key"}
			}
			c.Strategy = StrategyClass
		}
	case StrategyFactory:
		if c.Factory == nil {
			return c, &InvalidProducerError{Key: key, Reason: "factory strategy without a factory"}
		}
	case StrategyConstant:
		if c.Factory != nil {
			return c, &InvalidProducerError{Key: key, Reason: "constant strategy conflicts with the configured factory"}
		}
	case StrategyClass:
		if c.Factory != nil || c.Value != nil {
			return c, &InvalidProducerError{Key: key, Reason: "class strategy conflicts with the configured factory or value"}
		}
	default:
		return c, &InvalidProducerError{Key: key, Reason: "unknown strategy " + string(c.Strategy)}
	}

	if c.Strategy == StrategyClass {
		t, ok := c.Key.(reflect.Type)
		if !ok || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
			return c, &InvalidProducerError{Key: key, Reason: "class strategy requires a pointer-to-struct type key"}
		}
	}

	return c, nil
}

// Producer is a registered descriptor of how to construct values for one
// key, their scope, and how to destroy them.
type Producer struct {
	mu    sync.RWMutex
	cfg   ProducerConfig
	inUse map[*Container]struct{}
}

func (*Producer) descriptor() {}

// NewProducer creates a producer that is not registered anywhere. It can be
// resolved directly or returned from a FallbackFunc.
func NewProducer(key any, opts ...ProducerOption) (*Producer, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	cfg := ProducerConfig{Key: key}
	for _, opt := range opts {
		opt(&cfg)
	}
	return newProducer(cfg)
}

func newProducer(cfg ProducerConfig) (*Producer, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	return &Producer{
		cfg:   cfg,
		inUse: make(map[*Container]struct{}),
	}, nil
}

// Key returns the key the producer was created for.
func (p *Producer) Key() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Key
}

// Scope returns the producer's scope.
func (p *Producer) Scope() Scope {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Scope
}

// Strategy returns the producer's construction strategy.
func (p *Producer) Strategy() Strategy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Strategy
}

// Meta returns the metadata attached with WithMeta.
func (p *Producer) Meta() any {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cfg.Meta
}

func (p *Producer) String() string {
	return keyString(p.Key())
}

// Override changes the producer in place. Options that supply a factory,
// a value or a strategy replace the previous construction settings, so a
// class producer can be swapped for a factory or a constant:
//
//	p.Override(scopegraph.WithValue(fakeClock))
//
// Values that already exist are untouched and keep being tracked by the
// containers that own them.
func (p *Producer) Override(opts ...ProducerOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var patch ProducerConfig
	for _, opt := range opts {
		opt(&patch)
	}

	cfg := p.cfg
	// a new way of constructing replaces the old one entirely
	if patch.Strategy != "" || patch.Factory != nil || patch.Value != nil {
		cfg.Strategy, cfg.Factory, cfg.Value = "", nil, nil
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Key = p.cfg.Key

	cfg, err := cfg.normalize()
	if err != nil {
		return err
	}
	p.cfg = cfg
	return nil
}

// replace swaps the whole configuration, keeping identity and tracking.
func (p *Producer) replace(cfg ProducerConfig) error {
	cfg, err := cfg.normalize()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()
	return nil
}

// InUse returns how many containers currently own a value of p.
func (p *Producer) InUse() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.inUse)
}

// Containers returns the containers currently owning a value of p.
func (p *Producer) Containers() []*Container {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*Container, 0, len(p.inUse))
	for c := range p.inUse {
		out = append(out, c)
	}
	return out
}

func (p *Producer) track(c *Container) {
	p.mu.Lock()
	p.inUse[c] = struct{}{}
	p.mu.Unlock()
}

func (p *Producer) untrack(c *Container) {
	p.mu.Lock()
	delete(p.inUse, c)
	p.mu.Unlock()
}

func (p *Producer) create(r *Resolver, args []any) (any, error) {
	p.mu.RLock()
	cfg := p.cfg
	p.mu.RUnlock()

	switch cfg.Strategy {
	case StrategyFactory:
		return cfg.Factory(r, args...)
	case StrategyConstant:
		return cfg.Value, nil
	default:
		t := cfg.Key.(reflect.Type)
		value := reflect.New(t.Elem()).Interface()
		if init, ok := value.(Initializer); ok {
			if err := init.OnBoot(r, args...); err != nil {
				return nil, err
			}
		}
		return value, nil
	}
}

func (p *Producer) destroyValue(value any) error {
	p.mu.RLock()
	hook := p.cfg.Destroy
	p.mu.RUnlock()

	if hook != nil {
		return hook(value)
	}
	if s, ok := value.(Shutdowner); ok {
		return s.OnShutdown()
	}
	return nil
}
