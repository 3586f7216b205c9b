package session

import (
	"sync"

	"github.com/dmitrijs2005/storekeeper/internal/client/models"
	"github.com/dmitrijs2005/storekeeper/internal/client/verification"
)

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() models.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) IsAuthenticated() bool {
	return c.Snapshot().IsAuthenticated
}

// Progress is recomputed from the current identity on every call.
func (c *Controller) Progress() verification.Progress {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		return verification.Progress{Total: verification.TotalSteps}
	}
	return verification.Compute(*c.identity)
}

// Subscribe returns a channel that receives the current snapshot right away
// and a fresh one after every change. Slow readers only see the latest
// snapshot. The returned func unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan models.Snapshot, func()) {
	ch := make(chan models.Snapshot, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(ch)
			}
		})
	}
}

func (c *Controller) snapshotLocked() models.Snapshot {
	s := models.Snapshot{
		State:           c.state,
		IsAuthenticated: c.state == models.StateAuthenticated,
		IsLoading:       c.state == models.StateInitializing,
	}
	if c.identity != nil && c.state == models.StateAuthenticated {
		cp := c.identity.Clone()
		s.Identity = &cp
	}
	return s
}

func (c *Controller) notifyLocked() {
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// replace the unread snapshot with the newer one
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
