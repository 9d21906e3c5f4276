package chat

import (
	"sync"

	"CrewChat/entity"
)

// CancelFunc tears down a subscription. Safe to call more than once.
type CancelFunc func()

// notifier fans a full snapshot out to registered callbacks. Callbacks
// always receive the complete current state, never a diff, which keeps the
// reconciliation contract simple for subscribers.
type notifier[T any] struct {
	mu      sync.Mutex
	subs    map[int]func(T)
	nextSub int
}

func newNotifier[T any]() *notifier[T] {
	return &notifier[T]{subs: make(map[int]func(T))}
}

func (n *notifier[T]) subscribe(fn func(T)) CancelFunc {
	n.mu.Lock()
	id := n.nextSub
	n.nextSub++
	n.subs[id] = fn
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *notifier[T]) publish(snapshot T) {
	n.mu.Lock()
	fns := make([]func(T), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}

func (n *notifier[T]) empty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs) == 0
}

// ListSubscription is a live conversation-list feed for one user.
type ListSubscription struct {
	cancel CancelFunc
}

// Cancel stops the feed. The underlying session-level subscription is the
// caller's to hold for the lifetime of the session.
func (s *ListSubscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

type listSnapshot = []entity.ConversationListEntry
