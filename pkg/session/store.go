package session

import (
	"context"
	"sync"
)

// Store defines the interface for session persistence.
//
// Get returns (nil, nil) when the session does not exist; backends may also
// report a missing key as an error satisfying IsNotFound, which callers treat
// the same way.
type Store interface {
	// Get retrieves a session snapshot by id
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Set creates or replaces the session snapshot
	Set(ctx context.Context, id string, snap *Snapshot) error

	// Destroy removes a session. Destroying a missing session is not an error.
	Destroy(ctx context.Context, id string) error
}

// Toucher is an optional interface for stores that can refresh a session's
// expiry without rewriting its payload.
type Toucher interface {
	Touch(ctx context.Context, id string, snap *Snapshot) error
}

// Lister is an optional interface for stores supporting bulk operations.
type Lister interface {
	// All returns every live session keyed by id
	All(ctx context.Context) (map[string]*Snapshot, error)

	// Len returns the number of live sessions
	Len(ctx context.Context) (int, error)

	// Clear removes every session
	Clear(ctx context.Context) error
}

// Event is a store lifecycle notification.
type Event uint8

const (
	EventConnect Event = iota + 1
	EventDisconnect
)

func (e Event) String() string {
	switch e {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	}
	return "unknown"
}

// EventSource is implemented by stores that report connectivity changes.
// The Manager skips session handling while its store is disconnected.
type EventSource interface {
	Subscribe(fn func(Event))
}

// Notifier is an embeddable EventSource implementation for store backends.
type Notifier struct {
	mu   sync.RWMutex
	subs []func(Event)
}

// Subscribe registers fn for every future event.
func (n *Notifier) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	n.mu.Lock()
	n.subs = append(n.subs, fn)
	n.mu.Unlock()
}

// Notify delivers e to all subscribers synchronously.
func (n *Notifier) Notify(e Event) {
	n.mu.RLock()
	subs := n.subs
	n.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
}
