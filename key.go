package scopegraph

import (
	"fmt"
	"reflect"
)

// Symbol is an opaque registry key compared by identity. Two symbols with
// the same description are distinct keys.
type Symbol struct {
	description string
}

// NewSymbol creates a new unique key.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

func (s *Symbol) String() string {
	return "Symbol(" + s.description + ")"
}

// TypeKey returns the class key for T. Registering a pointer-to-struct
// type key without a factory or value makes the producer class-constructed.
//
//	scopegraph.Register(scopegraph.TypeKey[*Service](), scopegraph.WithScope(scopegraph.ScopeContainer))
func TypeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func keyString(key any) string {
	switch k := key.(type) {
	case nil:
		return "<nil>"
	case reflect.Type:
		return k.String()
	case string:
		return fmt.Sprintf("%q", k)
	case *Symbol:
		return k.String()
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprintf("%v", k)
	}
}

func validKey(key any) error {
	if key == nil {
		return &InvalidProducerError{Key: keyString(key), Reason: "key cannot be nil"}
	}
	if _, ok := key.(*Producer); ok {
		return &InvalidProducerError{Key: keyString(key), Reason: "a producer cannot be used as a key"}
	}
	if !reflect.TypeOf(key).Comparable() {
		return &InvalidProducerError{Key: keyString(key), Reason: "key must be comparable"}
	}
	return nil
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
