package scopegraph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/centraunit/scopegraph"
	"github.com/centraunit/scopegraph/mock"
	"github.com/stretchr/testify/suite"
)

type ResolveTestSuite struct {
	treeSuite
}

func (s *ResolveTestSuite) TestScenario() {
	sc := s.scenario()

	c, err := scopegraph.Inject[*mock.C](s.root)
	s.Require().NoError(err)

	s.Equal("dep-c", c.Transient.Value)
	s.Equal("dep-a", c.A.Transient.Value)
	s.Equal("dep-b", c.B.Transient.Value)

	s.Same(c.Aborter, c.A.Aborter)
	s.Same(c.Aborter, c.B.Aborter)
	s.Same(c.A, c.B.A, "B must converge on the A built for C")

	s.Same(c.Singleton, c.A.Singleton)
	s.Same(c.Singleton, c.Aborter.Singleton)
	s.Same(c.Singleton, c.B.Transient.Singleton)

	owner := scopegraph.Search(c)
	s.Require().NotNil(owner)
	s.Same(s.root, owner.Parent())
	s.Same(owner, scopegraph.Search(c.Transient))
	s.Same(owner, scopegraph.Search(c.A).Parent())
	s.Same(owner, scopegraph.Search(c.B).Parent())
	s.Same(owner, scopegraph.Search(c.Aborter).Parent())
	s.Same(s.root, scopegraph.Search(c.Singleton))

	s.Equal(1, s.root.ChildCount())
	s.Equal(1, sc.Singleton.InUse())
	s.Equal(1, sc.Aborter.InUse())
	s.Equal(1, sc.A.InUse())
	s.Equal(3, sc.Transient.InUse())
	s.False(c.Aborter.Aborted())
}

func (s *ResolveTestSuite) TestSingletonUniqueness() {
	s.register(scopegraph.TypeKey[*mock.Singleton](), scopegraph.WithScope(scopegraph.ScopeSingleton))

	child := s.root.Extend()
	grandchild := child.Extend()

	fromRoot, err := scopegraph.Inject[*mock.Singleton](s.root)
	s.Require().NoError(err)
	fromChild, err := scopegraph.Inject[*mock.Singleton](child)
	s.Require().NoError(err)
	fromGrandchild, err := scopegraph.Inject[*mock.Singleton](grandchild)
	s.Require().NoError(err)

	s.Same(fromRoot, fromChild)
	s.Same(fromRoot, fromGrandchild)
	s.Same(s.root, scopegraph.Search(fromRoot))
	s.False(child.IsEmpty(), "child still owns the grandchild")
	s.Equal(0, grandchild.OwnedCount())

	s.NoError(child.Destroy())
	again, err := scopegraph.Inject[*mock.Singleton](s.root)
	s.NoError(err)
	s.Same(fromRoot, again)
}

func (s *ResolveTestSuite) TestContainerScopeIndependentResolutions() {
	sc := s.scenario()

	first, err := scopegraph.Inject[*mock.A](s.root)
	s.Require().NoError(err)
	second, err := scopegraph.Inject[*mock.A](s.root)
	s.Require().NoError(err)

	s.NotSame(first, second)
	s.NotSame(first.Aborter, second.Aborter)
	s.NotSame(scopegraph.Search(first), scopegraph.Search(second))
	s.Equal(2, s.root.ChildCount())
	s.Equal(2, sc.Aborter.InUse())
}

func (s *ResolveTestSuite) TestTransientCollapse() {
	factory, calls := counter()
	s.register("token", scopegraph.WithFactory(factory))

	x := s.root.Extend()
	y := s.root.Extend()

	x1, err := x.Resolve("token")
	s.Require().NoError(err)
	x2, err := x.Resolve("token")
	s.Require().NoError(err)
	y1, err := y.Resolve("token")
	s.Require().NoError(err)

	s.Same(x1, x2, "same target container collapses")
	s.NotSame(x1, y1, "different target containers do not")
	s.Equal(2, calls())

	s.Same(x, scopegraph.Search(x1))
	s.Same(y, scopegraph.Search(y1))
}

func (s *ResolveTestSuite) TestTransientArgsCollapseWithinTarget() {
	s.register(scopegraph.TypeKey[*mock.Singleton](), scopegraph.WithScope(scopegraph.ScopeSingleton))
	s.register(scopegraph.TypeKey[*mock.Transient]())

	first, err := scopegraph.Inject[*mock.Transient](s.root, "first")
	s.Require().NoError(err)
	second, err := scopegraph.Inject[*mock.Transient](s.root, "second")
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal("first", second.Value)
}

func (s *ResolveTestSuite) TestResolutionScope() {
	factory, _ := counter()
	s.register("request", scopegraph.WithFactory(factory), scopegraph.WithScope(scopegraph.ScopeResolution))

	v, err := s.root.Resolve("request")
	s.Require().NoError(err)
	s.Same(s.root, scopegraph.Search(v))
	s.Equal(0, s.root.ChildCount())
	s.Equal(1, s.root.OwnedCount())
}

func (s *ResolveTestSuite) TestScopedReusesTop() {
	var innerContainer *scopegraph.Container
	s.register("inner", scopegraph.WithScope(scopegraph.ScopeScoped),
		scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
			innerContainer = r.Container()
			return &mock.Singleton{Name: "inner"}, nil
		}))
	s.register("outer", scopegraph.WithScope(scopegraph.ScopeScoped),
		scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
			inner, err := r.Resolve("inner")
			if err != nil {
				return nil, err
			}
			return &mock.Transient{Singleton: inner.(*mock.Singleton)}, nil
		}))

	outer, err := s.root.Resolve("outer")
	s.Require().NoError(err)

	s.Require().Equal(1, s.root.ChildCount(), "an empty call path opens one layer")
	child := s.root.Children()[0]
	s.Same(child, scopegraph.Search(outer))
	s.Same(child, scopegraph.Search(outer.(*mock.Transient).Singleton))
	s.Same(child, innerContainer)
	s.Equal(2, child.OwnedCount())
	s.Equal(0, child.ChildCount())
}

func (s *ResolveTestSuite) TestResolverTracksCallPath() {
	var depths []int
	s.register("leaf", scopegraph.WithScope(scopegraph.ScopeContainer),
		scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
			depths = append(depths, r.Depth())
			return &mock.Deep1{Value: "leaf"}, nil
		}))
	s.register("branch", scopegraph.WithScope(scopegraph.ScopeContainer),
		scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
			depths = append(depths, r.Depth())
			if _, err := r.Resolve("leaf"); err != nil {
				return nil, err
			}
			depths = append(depths, r.Depth())
			s.Same(s.root, r.Origin())
			return &mock.Deep2{}, nil
		}))

	_, err := s.root.Resolve("branch")
	s.Require().NoError(err)
	s.Equal([]int{1, 2, 1}, depths)
}

func (s *ResolveTestSuite) TestNestedContainerResolveContinuesCallPath() {
	sc := s.scenario()
	s.register("wrapper", scopegraph.WithScope(scopegraph.ScopeContainer),
		scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
			first, err := scopegraph.Inject[*mock.Aborter](r)
			if err != nil {
				return nil, err
			}
			// resolving through the origin container on the same goroutine
			// still sees the current call path
			second, err := scopegraph.Inject[*mock.Aborter](s.root)
			if err != nil {
				return nil, err
			}
			return []*mock.Aborter{first, second}, nil
		}))

	v, err := s.root.Resolve("wrapper")
	s.Require().NoError(err)
	pair := v.([]*mock.Aborter)
	s.Same(pair[0], pair[1])
	s.Equal(1, sc.Aborter.InUse())
}

func (s *ResolveTestSuite) TestResolverOutlivesResolution() {
	s.scenario()
	var kept *scopegraph.Resolver
	s.register("keeper", scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
		kept = r
		return &mock.Deep1{}, nil
	}))

	_, err := s.root.Resolve("keeper")
	s.Require().NoError(err)
	s.Require().NotNil(kept)

	a, err := scopegraph.Inject[*mock.Aborter](kept)
	s.Require().NoError(err)
	s.Same(s.root, scopegraph.Search(a).Parent())
}

func (s *ResolveTestSuite) TestResolveByProducer() {
	factory, _ := counter()
	p, err := scopegraph.NewProducer("unregistered", scopegraph.WithFactory(factory))
	s.Require().NoError(err)

	v, err := s.root.Resolve(p)
	s.Require().NoError(err)
	s.Same(s.root, scopegraph.Search(v))
	s.Nil(s.reg.Search("unregistered"))
	s.Equal(1, p.InUse())
}

func (s *ResolveTestSuite) TestResolveIn() {
	s.register(scopegraph.TypeKey[*mock.Deep1]())

	v, err := s.root.ResolveIn(scopegraph.ScopeContainer, scopegraph.TypeKey[*mock.Deep1]())
	s.Require().NoError(err)
	s.Same(s.root, scopegraph.Search(v).Parent())

	_, err = s.root.ResolveIn("nope", scopegraph.TypeKey[*mock.Deep1]())
	var invalid *scopegraph.InvalidProducerError
	s.ErrorAs(err, &invalid)
}

func (s *ResolveTestSuite) TestFallback() {
	var asked []any
	root := scopegraph.New(
		scopegraph.WithRegistry(s.reg),
		scopegraph.WithFallback(func(key any) (scopegraph.Descriptor, error) {
			asked = append(asked, key)
			name, ok := key.(string)
			if !ok {
				return nil, errors.New("only string keys")
			}
			return scopegraph.ProducerConfig{
				Scope: scopegraph.ScopeSingleton,
				Value: &mock.Singleton{Name: name},
			}, nil
		}),
	)

	v, err := root.Resolve("dynamic")
	s.Require().NoError(err)
	s.Equal("dynamic", v.(*mock.Singleton).Name)

	p := s.reg.Search("dynamic")
	s.Require().NotNil(p, "fallback configs are registered")
	s.Equal(scopegraph.ScopeSingleton, p.Scope())

	again, err := root.Resolve("dynamic")
	s.NoError(err)
	s.Same(v, again)
	s.Len(asked, 1)

	_, err = root.Resolve(42)
	s.EqualError(err, "only string keys")
}

func (s *ResolveTestSuite) TestProducerNotFound() {
	_, err := s.root.Resolve("missing")
	var notFound *scopegraph.ProducerNotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal(`"missing"`, notFound.Key)

	_, err = scopegraph.Inject[*mock.C](s.root)
	s.ErrorAs(err, &notFound)
}

func (s *ResolveTestSuite) TestTypeMismatch() {
	s.register("number", scopegraph.WithValue(7))

	_, err := scopegraph.Resolve[string](s.root, "number")
	var mismatch *scopegraph.TypeMismatchError
	s.Require().ErrorAs(err, &mismatch)
	s.Equal("string", mismatch.Expected)
	s.Equal("int", mismatch.Got)

	n, err := scopegraph.Resolve[int](s.root, "number")
	s.NoError(err)
	s.Equal(7, n)
}

func (s *ResolveTestSuite) TestMustInjectPanics() {
	s.Panics(func() {
		scopegraph.MustInject[*mock.C](s.root)
	})

	s.scenario()
	s.NotPanics(func() {
		c := scopegraph.MustInject[*mock.C](s.root)
		s.Equal("dep-c", c.Transient.Value)
	})
}

func (s *ResolveTestSuite) TestFailureUnwindsCallPath() {
	sc := s.scenario()
	s.register(scopegraph.TypeKey[*mock.FailingService](), scopegraph.WithScope(scopegraph.ScopeContainer))

	_, err := scopegraph.Inject[*mock.FailingService](s.root)
	var initErr *scopegraph.InitializationError
	s.Require().ErrorAs(err, &initErr)
	s.Contains(err.Error(), "simulated boot failure")

	// the failed layer still owns the aborter it built, so it stays attached
	s.Equal(1, s.root.ChildCount())

	c, err := scopegraph.Inject[*mock.C](s.root)
	s.Require().NoError(err)
	s.Same(s.root, scopegraph.Search(c).Parent(), "call path must be empty again")
	s.Equal(2, sc.Aborter.InUse())
}

func (s *ResolveTestSuite) TestFailedEmptyLayerIsDetached() {
	var layer *scopegraph.Container
	s.register("broken", scopegraph.WithScope(scopegraph.ScopeContainer),
		scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
			layer = r.Container()
			return nil, errors.New("boom")
		}))

	_, err := s.root.Resolve("broken")
	s.Error(err)
	s.Equal(0, s.root.ChildCount())
	s.Require().NotNil(layer)
	s.ErrorIs(layer.Context().Err(), context.Canceled)
	s.Nil(layer.Parent())
}

func (s *ResolveTestSuite) TestPanicUnwindsCallPath() {
	s.register("panics", scopegraph.WithScope(scopegraph.ScopeContainer),
		scopegraph.WithFactory(func(*scopegraph.Resolver, ...any) (any, error) {
			panic("constructor panic")
		}))
	s.register(scopegraph.TypeKey[*mock.Deep1](), scopegraph.WithScope(scopegraph.ScopeContainer))

	s.Panics(func() {
		_, _ = s.root.Resolve("panics")
	})
	s.Equal(0, s.root.ChildCount(), "the layer opened for the panicking constructor is discarded")

	v, err := s.root.Resolve(scopegraph.TypeKey[*mock.Deep1]())
	s.Require().NoError(err)
	s.Same(s.root, scopegraph.Search(v).Parent())
}

func (s *ResolveTestSuite) TestCircularDependency() {
	s.register("left", scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
		return r.Resolve("right")
	}))
	s.register("right", scopegraph.WithFactory(func(r *scopegraph.Resolver, _ ...any) (any, error) {
		return r.Resolve("left")
	}))

	_, err := s.root.Resolve("left")
	var cycle *scopegraph.CircularDependencyError
	s.Require().ErrorAs(err, &cycle)
	s.Equal([]string{`"left"`, `"right"`, `"left"`}, cycle.Chain)
	s.Equal(0, s.root.OwnedCount())
}

func (s *ResolveTestSuite) TestGet() {
	s.scenario()

	_, err := s.root.Get(scopegraph.TypeKey[*mock.C]())
	var notResolved *scopegraph.InjectionNotFoundError
	s.ErrorAs(err, &notResolved)

	c, err := scopegraph.Inject[*mock.C](s.root)
	s.Require().NoError(err)

	got, err := s.root.Get(scopegraph.TypeKey[*mock.C]())
	s.NoError(err)
	s.Same(c, got)

	single, err := scopegraph.Search(c.A).Get(scopegraph.TypeKey[*mock.Singleton]())
	s.NoError(err)
	s.Same(c.Singleton, single)

	tr, err := scopegraph.Search(c).Get(scopegraph.TypeKey[*mock.Transient]())
	s.NoError(err)
	s.Same(c.Transient, tr)

	_, err = s.root.Get(scopegraph.TypeKey[*mock.A]())
	s.ErrorAs(err, &notResolved, "A lives below the root's direct children")

	_, err = s.root.Get("unknown")
	var notFound *scopegraph.ProducerNotFoundError
	s.ErrorAs(err, &notFound)
}

func (s *ResolveTestSuite) TestBind() {
	s.scenario()
	c, err := scopegraph.Inject[*mock.C](s.root)
	s.Require().NoError(err)

	owner, err := scopegraph.Bind(c)
	s.NoError(err)
	s.Same(scopegraph.Search(c), owner)

	_, err = scopegraph.Bind(&mock.C{})
	var orphan *scopegraph.OwningContainerNotFoundError
	s.Require().ErrorAs(err, &orphan)
	s.Equal("*mock.C", orphan.Type)

	_, err = scopegraph.Bind(42)
	s.ErrorAs(err, &orphan, "values without identity are never tracked")
}

func (s *ResolveTestSuite) TestMapValuesCarryBackReferences() {
	var closed int
	s.register("settings", scopegraph.WithScope(scopegraph.ScopeContainer),
		scopegraph.WithFactory(func(*scopegraph.Resolver, ...any) (any, error) {
			return map[string]any{"region": "eu"}, nil
		}),
		scopegraph.WithDestroy(func(any) error {
			closed++
			return nil
		}))

	v, err := s.root.Resolve("settings")
	s.Require().NoError(err)
	settings := v.(map[string]any)

	owner := scopegraph.Search(settings)
	s.Require().NotNil(owner)
	s.Same(s.root, owner.Parent())
	bound, err := scopegraph.Bind(settings)
	s.NoError(err)
	s.Same(owner, bound)

	s.Nil(scopegraph.Search(map[string]any{"region": "eu"}), "equal maps are distinct values")

	s.Require().NoError(scopegraph.Destroy(settings))
	s.Equal(1, closed)
	s.Equal(0, s.root.ChildCount())
	s.Nil(scopegraph.Search(settings))
}

func (s *ResolveTestSuite) TestConstantsAreNotTrackedTwice() {
	shared := &mock.Singleton{Name: "shared"}
	s.register("shared", scopegraph.WithValue(shared))

	x := s.root.Extend()
	y := s.root.Extend()
	vx, err := x.Resolve("shared")
	s.Require().NoError(err)
	vy, err := y.Resolve("shared")
	s.Require().NoError(err)

	s.Same(vx, vy)
	s.Same(x, scopegraph.Search(shared), "the first owner keeps the back-reference")
}

func TestResolveSuite(t *testing.T) {
	suite.Run(t, new(ResolveTestSuite))
}
