package blobcache

import (
	"context"
	"errors"
	"time"
)

func (c *cache[T]) Clear(ctx context.Context) error {
	return c.sweep(ctx, time.Time{})
}

func (c *cache[T]) ClearOlderThan(ctx context.Context, maxAge time.Duration) error {
	return c.sweep(ctx, c.clk.Now().Add(-maxAge))
}

// sweep deletes blobs modified before cutoff (all of them when cutoff is
// zero) and drops the matching memory entries. Fills already in flight are
// left alone. A blob that cannot be deleted is skipped.
func (c *cache[T]) sweep(ctx context.Context, cutoff time.Time) error {
	if c.closed.Load() {
		return ErrClosed
	}
	ns, err := c.namespace(ctx)
	if err != nil {
		return err
	}
	blobs, err := ns.List(ctx)
	if err != nil {
		return err
	}

	deleted := 0
	for _, b := range blobs {
		if !cutoff.IsZero() && !b.ModTime.Before(cutoff) {
			continue
		}
		if err := ns.Delete(ctx, b.Name); err != nil {
			c.log.Debug("sweep: delete failed", Fields{"name": b.Name, "err": err})
			c.hooks.SweepDeleteFailed(b.Name, err)
			continue
		}
		deleted++
	}
	c.mem.Purge(cutoff)
	c.hooks.Swept(deleted)
	if deleted > 0 {
		c.log.Debug("sweep done", Fields{"deleted": deleted, "listed": len(blobs)})
	}
	return nil
}

func (c *cache[T]) startJanitor(every time.Duration) {
	c.stopCh = make(chan struct{})
	ticker := time.NewTicker(every)
	c.closeWg.Add(1)
	go func() {
		defer c.closeWg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				maxAge := coalesce(c.sweepMaxAge, c.TTL())
				err := c.sweepOnce(maxAge)
				if errors.Is(err, ErrClosed) {
					return
				}
				if err != nil {
					c.log.Warn("background sweep failed", Fields{"err": err, "maxAge": maxAge})
				}
			case <-c.stopCh:
				return
			}
		}
	}()
}

func (c *cache[T]) sweepOnce(maxAge time.Duration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return c.ClearOlderThan(ctx, maxAge)
}
