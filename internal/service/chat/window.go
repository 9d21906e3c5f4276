package chat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"CrewChat/entity"
)

// loadOlderTimeout bounds a backfill request so a hung store call cannot
// pin the isFetching guard forever.
const loadOlderTimeout = 10 * time.Second

type messageStore interface {
	LatestMessages(ctx context.Context, convID string, window int) ([]entity.Message, error)
	MessagesBefore(ctx context.Context, convID string, beforeAt time.Time, beforeSeq int64, limit int) ([]entity.Message, error)
}

// Window is the live view over one conversation's message log: the newest
// windowSize messages plus whatever older pages the user has scrolled back
// through, always in ascending order.
type Window struct {
	store      messageStore
	convID     string
	userID     string
	windowSize int
	pageSize   int

	mu          sync.Mutex
	messages    []entity.Message
	ids         map[string]bool
	capacity    int
	initialLoad bool
	anchor      ScrollAnchor

	fetching atomic.Bool
	subs     *notifier[[]entity.Message]
	detach   CancelFunc
	closed   atomic.Bool
}

func newWindow(store messageStore, convID, userID string, windowSize, pageSize int) *Window {
	return &Window{
		store:       store,
		convID:      convID,
		userID:      userID,
		windowSize:  windowSize,
		pageSize:    pageSize,
		capacity:    windowSize,
		ids:         make(map[string]bool),
		initialLoad: true,
		subs:        newNotifier[[]entity.Message](),
	}
}

func (w *Window) ConversationID() string {
	return w.convID
}

// load fetches the newest window. Called once on open and again after a
// reset; the viewport snaps to the newest message.
func (w *Window) load(ctx context.Context) error {
	messages, err := w.store.LatestMessages(ctx, w.convID, w.windowSize)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.messages = messages
	w.ids = make(map[string]bool, len(messages))
	for _, msg := range messages {
		w.ids[msg.ID.Hex()] = true
	}
	w.capacity = w.windowSize
	w.initialLoad = true
	w.anchor.Reset()
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.subs.publish(snapshot)
	return nil
}

// Subscribe delivers the current snapshot immediately, then again on every
// change. Delivered slices are copies; the engine never reorders or drops
// messages within one snapshot.
func (w *Window) Subscribe(fn func([]entity.Message)) CancelFunc {
	w.mu.Lock()
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	fn(snapshot)
	return w.subs.subscribe(fn)
}

// Messages returns the current in-memory snapshot, ascending.
func (w *Window) Messages() []entity.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// InitialLoad reports whether the window still shows its first snapshot
// (viewport should snap to the newest message, not restore an anchor).
func (w *Window) InitialLoad() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.initialLoad
}

// deliver appends a live message and publishes the new snapshot.
func (w *Window) deliver(msg entity.Message) {
	if w.closed.Load() {
		return
	}

	w.mu.Lock()
	if w.ids[msg.ID.Hex()] {
		w.mu.Unlock()
		return
	}
	w.ids[msg.ID.Hex()] = true
	w.messages = append(w.messages, msg)
	// Out-of-order delivery is rare but possible when a slow append
	// races a fast one; restore (created_at, seq) order in place.
	for i := len(w.messages) - 1; i > 0; i-- {
		if w.messages[i].Before(&w.messages[i-1]) {
			w.messages[i], w.messages[i-1] = w.messages[i-1], w.messages[i]
		} else {
			break
		}
	}
	w.evictOldestLocked()
	w.initialLoad = false
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.subs.publish(snapshot)
}

// evictOldestLocked drops messages beyond the window's capacity from the
// front, so a long-lived window does not grow with every live delivery.
// Capacity covers the newest windowSize plus any pages the user scrolled
// back through, so a bounded window never cuts into loaded history.
func (w *Window) evictOldestLocked() {
	overflow := len(w.messages) - w.capacity
	if overflow <= 0 {
		return
	}
	for i := 0; i < overflow; i++ {
		delete(w.ids, w.messages[i].ID.Hex())
	}
	w.messages = w.messages[:copy(w.messages, w.messages[overflow:])]
}

// LoadOlder prepends the previous page of strictly older messages. At most
// one call may be in flight per window; re-entrant calls (rapid
// scroll-to-top events) are suppressed and return nil.
func (w *Window) LoadOlder(ctx context.Context) ([]entity.Message, error) {
	if !w.fetching.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer w.fetching.Store(false)

	w.mu.Lock()
	if len(w.messages) == 0 {
		w.mu.Unlock()
		return nil, nil
	}
	oldest := w.messages[0]
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, loadOlderTimeout)
	defer cancel()

	page, err := w.store.MessagesBefore(ctx, w.convID, oldest.CreatedAt, oldest.Seq, w.pageSize)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, entity.TransientError("loading older messages timed out")
		}
		return nil, err
	}
	if len(page) == 0 {
		return nil, nil
	}

	w.mu.Lock()
	fresh := make([]entity.Message, 0, len(page))
	for _, msg := range page {
		if w.ids[msg.ID.Hex()] {
			continue
		}
		w.ids[msg.ID.Hex()] = true
		fresh = append(fresh, msg)
	}
	w.messages = append(fresh, w.messages...)
	w.capacity += len(fresh)
	w.initialLoad = false
	snapshot := w.snapshotLocked()
	w.mu.Unlock()

	w.subs.publish(snapshot)
	return fresh, nil
}

// Anchor exposes the scroll anchor used to keep the reading position
// stable across a backfill.
func (w *Window) Anchor() *ScrollAnchor {
	return &w.anchor
}

// Close detaches the window from the live feed. Switching the active
// conversation must close the old window or risk cross-conversation
// message leakage.
func (w *Window) Close() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}
	if w.detach != nil {
		w.detach()
	}
}

func (w *Window) snapshotLocked() []entity.Message {
	snapshot := make([]entity.Message, len(w.messages))
	copy(snapshot, w.messages)
	return snapshot
}

// ScrollAnchor preserves the viewport position across a backfill: capture
// the scroll height immediately before requesting the page, and after the
// page is applied the new offset is newHeight - heightBefore, so the
// content the user was reading does not jump.
type ScrollAnchor struct {
	mu           sync.Mutex
	heightBefore float64
	armed        bool
}

// Capture records the scroll height before a backfill request.
func (a *ScrollAnchor) Capture(heightBefore float64) {
	a.mu.Lock()
	a.heightBefore = heightBefore
	a.armed = true
	a.mu.Unlock()
}

// Offset returns the viewport offset to apply once the older page has been
// prepended, and disarms the anchor. Returns 0 when nothing was captured.
func (a *ScrollAnchor) Offset(heightAfter float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.armed {
		return 0
	}
	a.armed = false
	return heightAfter - a.heightBefore
}

// Reset drops any captured anchor; used when the active conversation
// switches so the next snapshot snaps to the newest message.
func (a *ScrollAnchor) Reset() {
	a.mu.Lock()
	a.armed = false
	a.heightBefore = 0
	a.mu.Unlock()
}
