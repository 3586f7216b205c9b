package session

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/storekeeper/internal/client/broadcast"
	"github.com/dmitrijs2005/storekeeper/internal/client/models"
)

// Watch follows credential changes made by other processes sharing the
// same storage. origin is this process's vault origin; its own events are
// ignored. Watching stops when ctx is cancelled or the controller is closed.
//
// This is best effort: events can be missed. Two processes can still
// overwrite each other's credential unless the vault holds a write lease, in
// which case the second sign-in fails with vault.ErrLeaseHeld.
func (c *Controller) Watch(ctx context.Context, sub broadcast.Subscriber, origin string) error {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		return ErrClosed
	}
	c.cancels = append(c.cancels, cancel)
	c.watchers.Add(1)
	c.mu.Unlock()

	events, err := sub.Subscribe(ctx)
	if err != nil {
		cancel()
		c.watchers.Done()
		return fmt.Errorf("watch credential events: %w", err)
	}

	go func() {
		defer c.watchers.Done()
		for e := range events {
			c.handleEvent(ctx, e, origin)
		}
	}()
	return nil
}

func (c *Controller) handleEvent(ctx context.Context, e broadcast.Event, origin string) {
	if e.Key != c.name || e.Origin == origin {
		return
	}

	switch e.Kind {
	case broadcast.KindErased:
		c.mu.Lock()
		if c.state != models.StateUnauthenticated {
			c.gen++
			c.clearLocked()
			c.log.Info(ctx, "session ended by another process", "origin", e.Origin)
		}
		c.mu.Unlock()
	case broadcast.KindStored:
		c.log.Debug(ctx, "credential replaced by another process", "origin", e.Origin)
		if err := c.refresh(ctx, false); err != nil {
			c.log.Warn(ctx, "identity refresh after credential change failed", "error", err)
		}
	}
}
