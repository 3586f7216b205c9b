package broadcast

import (
	"context"
	"time"
)

type Kind string

const (
	KindStored Kind = "stored"
	KindErased Kind = "erased"
)

// Event describes a change to a named credential. Origin identifies the
// publishing vault so receivers can skip their own events.
type Event struct {
	Key    string    `json:"key"`
	Kind   Kind      `json:"kind"`
	Origin string    `json:"origin"`
	At     time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Subscriber delivers events until ctx is cancelled; the channel is closed
// afterwards.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

type Bus interface {
	Publisher
	Subscriber
}

// Lease arbitrates a single writer across processes. Acquire succeeds for
// the current owner and extends its hold. Drop removes the lease whoever
// owns it.
type Lease interface {
	Acquire(ctx context.Context) (bool, error)
	Drop(ctx context.Context) error
}

// Nop discards every event and never delivers any.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Subscribe(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
