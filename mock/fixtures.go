package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/centraunit/scopegraph"
)

// Scenario types: C depends on A and B, B depends on A, and all of them
// share one container-scoped Aborter.

type Singleton struct {
	Name string
}

type Aborter struct {
	Singleton *Singleton
	ctx       context.Context
	shutdowns int
}

func (a *Aborter) OnBoot(r *scopegraph.Resolver, _ ...any) error {
	var err error
	a.Singleton, err = scopegraph.Inject[*Singleton](r)
	a.ctx = r.Container().Context()
	return err
}

func (a *Aborter) OnShutdown() error {
	a.shutdowns++
	return nil
}

// Aborted reports whether the container that built the aborter is gone.
func (a *Aborter) Aborted() bool {
	return a.ctx != nil && a.ctx.Err() != nil
}

func (a *Aborter) Done() <-chan struct{} {
	return a.ctx.Done()
}

func (a *Aborter) Shutdowns() int {
	return a.shutdowns
}

type Transient struct {
	Singleton *Singleton
	Value     string
}

func (t *Transient) OnBoot(r *scopegraph.Resolver, args ...any) error {
	if len(args) > 0 {
		value, ok := args[0].(string)
		if !ok {
			return fmt.Errorf("transient expects a string argument, got %T", args[0])
		}
		t.Value = value
	}
	var err error
	t.Singleton, err = scopegraph.Inject[*Singleton](r)
	return err
}

type A struct {
	Singleton *Singleton
	Aborter   *Aborter
	Transient *Transient
}

func (a *A) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	if a.Singleton, err = scopegraph.Inject[*Singleton](r); err != nil {
		return err
	}
	if a.Aborter, err = scopegraph.Inject[*Aborter](r); err != nil {
		return err
	}
	a.Transient, err = scopegraph.Inject[*Transient](r, "dep-a")
	return err
}

type B struct {
	Singleton *Singleton
	Aborter   *Aborter
	A         *A
	Transient *Transient
}

func (b *B) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	if b.Singleton, err = scopegraph.Inject[*Singleton](r); err != nil {
		return err
	}
	if b.Aborter, err = scopegraph.Inject[*Aborter](r); err != nil {
		return err
	}
	if b.A, err = scopegraph.Inject[*A](r); err != nil {
		return err
	}
	b.Transient, err = scopegraph.Inject[*Transient](r, "dep-b")
	return err
}

type C struct {
	Singleton *Singleton
	Aborter   *Aborter
	A         *A
	B         *B
	Transient *Transient
}

func (c *C) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	if c.Singleton, err = scopegraph.Inject[*Singleton](r); err != nil {
		return err
	}
	if c.Aborter, err = scopegraph.Inject[*Aborter](r); err != nil {
		return err
	}
	if c.A, err = scopegraph.Inject[*A](r); err != nil {
		return err
	}
	if c.B, err = scopegraph.Inject[*B](r); err != nil {
		return err
	}
	c.Transient, err = scopegraph.Inject[*Transient](r, "dep-c")
	return err
}

// Scenario holds the producers registered by RegisterScenario.
type Scenario struct {
	Singleton *scopegraph.Producer
	Aborter   *scopegraph.Producer
	Transient *scopegraph.Producer
	A         *scopegraph.Producer
	B         *scopegraph.Producer
	C         *scopegraph.Producer
}

// RegisterScenario registers the Singleton/Aborter/Transient/A/B/C graph.
func RegisterScenario(reg *scopegraph.Registry) (*Scenario, error) {
	var (
		s   Scenario
		err error
	)
	steps := []struct {
		dst   **scopegraph.Producer
		key   any
		scope scopegraph.Scope
	}{
		{&s.Singleton, scopegraph.TypeKey[*Singleton](), scopegraph.ScopeSingleton},
		{&s.Aborter, scopegraph.TypeKey[*Aborter](), scopegraph.ScopeContainer},
		{&s.Transient, scopegraph.TypeKey[*Transient](), scopegraph.ScopeTransient},
		{&s.A, scopegraph.TypeKey[*A](), scopegraph.ScopeContainer},
		{&s.B, scopegraph.TypeKey[*B](), scopegraph.ScopeContainer},
		{&s.C, scopegraph.TypeKey[*C](), scopegraph.ScopeContainer},
	}
	for _, step := range steps {
		if *step.dst, err = reg.Register(step.key, scopegraph.WithScope(step.scope)); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// Deep chain: Deep5 holds Deep4 ... holds Deep1.

type Deep1 struct {
	Value string
}

func (d *Deep1) OnBoot(_ *scopegraph.Resolver, _ ...any) error {
	d.Value = "deep"
	return nil
}

type Deep2 struct{ Deep1 *Deep1 }

func (d *Deep2) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	d.Deep1, err = scopegraph.Inject[*Deep1](r)
	return err
}

type Deep3 struct{ Deep2 *Deep2 }

func (d *Deep3) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	d.Deep2, err = scopegraph.Inject[*Deep2](r)
	return err
}

type Deep4 struct{ Deep3 *Deep3 }

func (d *Deep4) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	d.Deep3, err = scopegraph.Inject[*Deep3](r)
	return err
}

type Deep5 struct{ Deep4 *Deep4 }

func (d *Deep5) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	d.Deep4, err = scopegraph.Inject[*Deep4](r)
	return err
}

// RegisterDeep registers Deep1..Deep5 with scope, recording every destroy
// in journal when it is not nil. The producers are returned leaf first.
func RegisterDeep(reg *scopegraph.Registry, scope scopegraph.Scope, journal *Journal) ([]*scopegraph.Producer, error) {
	keys := []struct {
		name string
		key  any
	}{
		{"Deep1", scopegraph.TypeKey[*Deep1]()},
		{"Deep2", scopegraph.TypeKey[*Deep2]()},
		{"Deep3", scopegraph.TypeKey[*Deep3]()},
		{"Deep4", scopegraph.TypeKey[*Deep4]()},
		{"Deep5", scopegraph.TypeKey[*Deep5]()},
	}
	out := make([]*scopegraph.Producer, 0, len(keys))
	for _, k := range keys {
		opts := []scopegraph.ProducerOption{scopegraph.WithScope(scope)}
		if journal != nil {
			opts = append(opts, scopegraph.WithDestroy(journal.Hook(k.name)))
		}
		p, err := reg.Register(k.key, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// FailingService fails to boot.
type FailingService struct {
	Aborter *Aborter
}

func (f *FailingService) OnBoot(r *scopegraph.Resolver, _ ...any) (err error) {
	if f.Aborter, err = scopegraph.Inject[*Aborter](r); err != nil {
		return err
	}
	return fmt.Errorf("simulated boot failure")
}

// Journal records destroy hook invocations.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Hook returns a destroy hook recording name.
func (j *Journal) Hook(name string) scopegraph.DestroyHook {
	return func(any) error {
		j.mu.Lock()
		defer j.mu.Unlock()
		j.entries = append(j.entries, name)
		return nil
	}
}

func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// Count returns how many times name was destroyed.
func (j *Journal) Count(name string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	n := 0
	for _, e := range j.entries {
		if e == name {
			n++
		}
	}
	return n
}
