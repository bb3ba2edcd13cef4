// Package scopegraph builds object graphs on demand and owns the values it
// builds in a tree of containers, so that any subtree can later be torn
// down deterministically with every value's cleanup running exactly once.
//
// # Producers
//
// A [Producer] describes how to construct the value for a key and which
// [Scope] the value lives in. Keys are class keys ([TypeKey]), strings, or
// [Symbol]s:
//
//	reg := scopegraph.NewRegistry()
//	reg.Register(scopegraph.TypeKey[*Session](), scopegraph.WithScope(scopegraph.ScopeContainer))
//	reg.Register("clock", scopegraph.WithValue(clock), scopegraph.WithScope(scopegraph.ScopeSingleton))
//	reg.Register("conn", scopegraph.WithFactory(dial), scopegraph.WithDestroy(closeConn))
//
// A class key with no factory or value allocates the struct and calls its
// OnBoot when it implements [Initializer]; OnBoot resolves dependencies
// through the [Resolver] it receives.
//
// # Scopes
//
//   - [ScopeSingleton]: the value lives in the tree root.
//   - [ScopeContainer]: the value gets a new child container of the
//     container currently being built; everything it resolves while being
//     constructed is placed relative to that child.
//   - [ScopeScoped]: like container, but reuses the container currently
//     being built instead of opening a new layer when there is one.
//   - [ScopeResolution] and [ScopeTransient]: the value lives in the
//     container currently being built.
//
// Container-scoped values converge: two branches of one resolution that
// both need the same container-scoped producer share one instance, owned by
// the branch that built it first and borrowed by the other.
//
// # Destroying
//
//	c := scopegraph.New(scopegraph.WithRegistry(reg))
//	session, _ := scopegraph.Inject[*Session](c)
//	defer scopegraph.Destroy(session)
//
// Destroying a container destroys its whole subtree. Each owned value's
// destroy hook (or OnShutdown, see [Shutdowner]) runs once; borrowed values
// are left to their owner. The root refuses [Container.Destroy]; pass it
// explicitly to [Container.DestroyContainer].
package scopegraph
