package scopegraph

import (
	"context"
	"sync"
)

// ContainerContext is the context of one container. It is derived from the
// parent container's context, is cancelled when the container is destroyed,
// and inherits values set on ancestor containers.
type ContainerContext struct {
	context.Context
	cancel context.CancelFunc
	values sync.Map
}

// NewContainerContext creates a ContainerContext wrapping parent.
// The new context inherits all values from the parent context.
func NewContainerContext(parent context.Context) *ContainerContext {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ContainerContext{
		Context: ctx,
		cancel:  cancel,
	}
}

// WithValue returns a new ContainerContext with the provided key-value pair.
// The new context is a child of c and is cancelled with it.
func (c *ContainerContext) WithValue(key, val interface{}) *ContainerContext {
	newCtx := NewContainerContext(c)
	newCtx.values.Store(key, val)
	return newCtx
}

// Value looks the key up in c, then in its ancestors.
func (c *ContainerContext) Value(key interface{}) interface{} {
	if c == nil {
		return nil
	}
	if val, ok := c.values.Load(key); ok {
		return val
	}
	if c.Context != nil {
		return c.Context.Value(key)
	}
	return nil
}

func (c *ContainerContext) set(key, val interface{}) {
	c.values.Store(key, val)
}

// renew returns a live context under parent holding the values of c.
func (c *ContainerContext) renew(parent context.Context) *ContainerContext {
	fresh := NewContainerContext(parent)
	c.values.Range(func(k, v interface{}) bool {
		fresh.values.Store(k, v)
		return true
	})
	return fresh
}

func (c *ContainerContext) stop() {
	if c.cancel != nil {
		c.cancel()
	}
}
