// Package presence maintains the live set of online users.
package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"CrewChat/internal/lib/sl"
)

// Tracker counts live connections per user and keeps heartbeat timestamps
// so short network blips do not flap the online set.
type Tracker struct {
	mu       sync.RWMutex
	conns    map[string]int
	lastSeen map[string]time.Time
	subs     map[int]func()
	nextSub  int
	ttl      time.Duration
	log      *slog.Logger
}

func NewTracker(ttl time.Duration, logger *slog.Logger) *Tracker {
	return &Tracker{
		conns:    make(map[string]int),
		lastSeen: make(map[string]time.Time),
		subs:     make(map[int]func()),
		ttl:      ttl,
		log:      logger.With(sl.Module("presence")),
	}
}

// Connected registers a live connection for the user.
func (t *Tracker) Connected(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	t.conns[userID]++
	t.lastSeen[userID] = time.Now()
	t.mu.Unlock()
	t.notify()
}

// Disconnected releases one connection for the user. The user stays online
// until the heartbeat TTL lapses, avoiding flicker on reconnects.
func (t *Tracker) Disconnected(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	if t.conns[userID] > 0 {
		t.conns[userID]--
	}
	if t.conns[userID] == 0 {
		delete(t.conns, userID)
	}
	t.mu.Unlock()
	t.notify()
}

// Heartbeat refreshes the user's liveness window.
func (t *Tracker) Heartbeat(userID string) {
	if userID == "" {
		return
	}
	t.mu.Lock()
	t.lastSeen[userID] = time.Now()
	t.mu.Unlock()
}

func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.onlineLocked(userID)
}

func (t *Tracker) onlineLocked(userID string) bool {
	if t.conns[userID] > 0 {
		return true
	}
	seen, ok := t.lastSeen[userID]
	return ok && time.Since(seen) < t.ttl
}

// Snapshot returns the current online set.
func (t *Tracker) Snapshot() map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	online := make(map[string]bool, len(t.conns))
	for userID := range t.conns {
		online[userID] = true
	}
	for userID, seen := range t.lastSeen {
		if time.Since(seen) < t.ttl {
			online[userID] = true
		}
	}
	return online
}

// OnChange registers a callback fired whenever the online set may have
// changed. The returned cancel func removes the registration.
func (t *Tracker) OnChange(fn func()) func() {
	t.mu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
	}
}

func (t *Tracker) notify() {
	t.mu.RLock()
	fns := make([]func(), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// Run sweeps expired heartbeats until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(t.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *Tracker) sweep() {
	t.mu.Lock()
	changed := false
	for userID, seen := range t.lastSeen {
		if t.conns[userID] == 0 && time.Since(seen) >= t.ttl {
			delete(t.lastSeen, userID)
			changed = true
		}
	}
	t.mu.Unlock()

	if changed {
		t.notify()
	}
}
