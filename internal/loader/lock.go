package loader

import "context"

type lockKey struct {
	c *Coordinator
}

// acquire takes the coordinator lock unless ctx already carries ownership of
// it. The returned ctx marks ownership and must not outlive release.
func (c *Coordinator) acquire(ctx context.Context) (context.Context, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if held, _ := ctx.Value(lockKey{c}).(bool); held {
		return ctx, func() {}
	}
	c.mu.Lock()
	return context.WithValue(ctx, lockKey{c}, true), c.mu.Unlock
}
