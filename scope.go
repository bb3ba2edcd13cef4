package scopegraph

// Scope defines which container a produced value is placed in.
type Scope string

// Available producer scopes
const (
	// ScopeSingleton places the value in the tree root
	ScopeSingleton Scope = "singleton"
	// ScopeContainer places the value in a new child container that stays on
	// the call path while the value is being constructed
	ScopeContainer Scope = "container"
	// ScopeScoped reuses the container on top of the call path, or behaves
	// like ScopeContainer when the call path is empty
	ScopeScoped Scope = "scoped"
	// ScopeResolution places the value in the container currently being
	// built without opening a new layer
	ScopeResolution Scope = "resolution"
	// ScopeTransient places the value in the container currently being
	// built; repeated resolutions within that container collapse
	ScopeTransient Scope = "transient"
)

// String returns the scope name.
func (s Scope) String() string {
	return string(s)
}

// Valid reports whether s is one of the known scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeSingleton, ScopeContainer, ScopeScoped, ScopeResolution, ScopeTransient:
		return true
	default:
		return false
	}
}

// opensLayer reports whether the scope may extend the tree and push the
// new container onto the call path.
func (s Scope) opensLayer() bool {
	return s == ScopeContainer || s == ScopeScoped
}
