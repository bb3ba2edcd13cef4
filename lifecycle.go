package scopegraph

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Destroy destroys c and everything it owns. The root of a tree cannot be
// destroyed this way; name it explicitly with DestroyContainer.
func (c *Container) Destroy() error {
	if c.IsRoot() {
		return &CannotDestroyRootError{ID: c.id}
	}
	return c.tree.destroy(c)
}

// DestroyValue destroys the container owning value. A value without a
// back-reference destroys c itself, except when c is a root, in which case
// nothing happens; destroying an already destroyed value is a no-op.
func (c *Container) DestroyValue(value any) error {
	if owner := Search(value); owner != nil {
		return owner.tree.destroy(owner)
	}
	if c.IsRoot() {
		return nil
	}
	return c.tree.destroy(c)
}

// DestroyContainer destroys target, which may be a root.
func (c *Container) DestroyContainer(target *Container) error {
	if target == nil {
		return nil
	}
	return target.tree.destroy(target)
}

// DestroyOn destroys c once ctx is done. The returned stop function
// unregisters it, following context.AfterFunc.
//
//	stop := session.DestroyOn(r.Context())
//	defer stop()
func (c *Container) DestroyOn(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		if err := c.tree.destroy(c); err != nil {
			c.log.Warn("destroy on cancellation failed", zap.Error(err))
		}
	})
}

// Destroy destroys the container owning value. Values without a
// back-reference are ignored.
func Destroy(value any) error {
	owner := Search(value)
	if owner == nil {
		return nil
	}
	return owner.tree.destroy(owner)
}

// destroy tears down target and its whole subtree breadth first. Every
// owned value's hook runs exactly once; hook failures are collected and do
// not stop the cascade.
func (t *tree) destroy(target *Container) error {
	release := t.acquire()
	defer release()

	var errs []error
	queue := []*Container{target}

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]

		c.detach()

		queue = append(queue, c.children...)
		c.children = nil

		for _, p := range c.order {
			v := c.owned[p]
			if err := p.destroyValue(v); err != nil {
				c.log.Warn("destroy hook failed", zap.String("key", p.String()), zap.Error(err))
				errs = append(errs, &ShutdownError{Key: p.String(), Err: err})
			}
			p.untrack(c)
			releaseRef(v, c)
		}
		owned := len(c.order)
		c.owned = make(map[*Producer]any)
		c.order = nil

		for p, v := range c.inherited {
			releaseRef(v, c)
			delete(c.inherited, p)
		}

		c.ctx.stop()
		if c.parent == nil && !c.detached {
			// a root outlives its destroy and keeps serving resolutions
			c.ctx = c.ctx.renew(c.cfg.base)
		}
		if owned > 0 {
			c.log.Debug("container destroyed", zap.Int("owned", owned))
		}
	}

	return errors.Join(errs...)
}
