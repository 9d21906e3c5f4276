package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"CrewChat/entity"
)

type fakeMessageStore struct {
	latest  []entity.Message
	pages   [][]entity.Message
	calls   int
	err     error
	entered chan struct{}
	release chan struct{}
}

func (f *fakeMessageStore) LatestMessages(ctx context.Context, convID string, window int) ([]entity.Message, error) {
	return f.latest, nil
}

func (f *fakeMessageStore) MessagesBefore(ctx context.Context, convID string, beforeAt time.Time, beforeSeq int64, limit int) ([]entity.Message, error) {
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.calls]
	f.calls++
	return page, nil
}

func testMessage(text string, at time.Time, seq int64) entity.Message {
	return entity.Message{
		ID:        primitive.NewObjectID(),
		Text:      text,
		CreatedAt: at,
		Seq:       seq,
	}
}

func TestWindowLoadAndSubscribe(t *testing.T) {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeMessageStore{latest: []entity.Message{
		testMessage("one", base, 1),
		testMessage("two", base.Add(time.Second), 2),
	}}

	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))
	assert.True(t, w.InitialLoad())

	var got []entity.Message
	cancel := w.Subscribe(func(msgs []entity.Message) { got = msgs })
	defer cancel()

	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Text)
	assert.Equal(t, "two", got[1].Text)
}

func TestWindowDeliverAppendsAndDedups(t *testing.T) {
	base := time.Now().UTC()
	first := testMessage("first", base, 1)
	store := &fakeMessageStore{latest: []entity.Message{first}}

	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))

	live := testMessage("live", base.Add(time.Second), 2)
	w.deliver(live)
	w.deliver(live)  // echo of the same message
	w.deliver(first) // already in the window

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "live", msgs[1].Text)
	assert.False(t, w.InitialLoad())
}

func TestWindowDeliverRestoresOrder(t *testing.T) {
	base := time.Now().UTC()
	store := &fakeMessageStore{latest: []entity.Message{testMessage("a", base, 1)}}

	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))

	late := testMessage("c", base.Add(2*time.Second), 3)
	early := testMessage("b", base.Add(time.Second), 2)
	w.deliver(late)
	w.deliver(early)

	msgs := w.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "a", msgs[0].Text)
	assert.Equal(t, "b", msgs[1].Text)
	assert.Equal(t, "c", msgs[2].Text)
}

func TestWindowDeliverEvictsBeyondCapacity(t *testing.T) {
	base := time.Now().UTC()
	oldest := testMessage("oldest", base, 1)
	store := &fakeMessageStore{latest: []entity.Message{
		oldest,
		testMessage("mid", base.Add(time.Second), 2),
		testMessage("newest", base.Add(2*time.Second), 3),
	}}

	w := newWindow(store, "c1", "me", 3, 2)
	require.NoError(t, w.load(context.Background()))

	w.deliver(testMessage("live-1", base.Add(3*time.Second), 4))
	w.deliver(testMessage("live-2", base.Add(4*time.Second), 5))

	msgs := w.Messages()
	require.Len(t, msgs, 3, "live deliveries must not grow the window past its size")
	assert.Equal(t, "newest", msgs[0].Text)
	assert.Equal(t, "live-2", msgs[2].Text)

	// An evicted message is forgotten entirely, ids map included.
	w.mu.Lock()
	tracked := len(w.ids)
	w.mu.Unlock()
	assert.Equal(t, 3, tracked)
}

func TestWindowKeepsScrolledBackPages(t *testing.T) {
	base := time.Now().UTC()
	store := &fakeMessageStore{
		latest: []entity.Message{
			testMessage("w1", base.Add(10*time.Second), 3),
			testMessage("w2", base.Add(11*time.Second), 4),
		},
		pages: [][]entity.Message{{
			testMessage("old-1", base, 1),
			testMessage("old-2", base.Add(time.Second), 2),
		}},
	}

	w := newWindow(store, "c1", "me", 2, 2)
	require.NoError(t, w.load(context.Background()))

	fresh, err := w.LoadOlder(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 2)

	// Capacity grew with the backfilled page: live traffic drops the
	// oldest rows but never below window plus loaded history.
	w.deliver(testMessage("live", base.Add(12*time.Second), 5))
	msgs := w.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, "old-2", msgs[0].Text)
	assert.Equal(t, "live", msgs[3].Text)
}

func TestWindowLoadOlderPrependsAndDedups(t *testing.T) {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	oldest := testMessage("oldest", base.Add(time.Minute), 10)
	older := testMessage("older", base, 5)

	store := &fakeMessageStore{
		latest: []entity.Message{oldest},
		// the page overlaps with what the window already holds
		pages: [][]entity.Message{{older, oldest}},
	}

	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))

	fresh, err := w.LoadOlder(context.Background())
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "older", fresh[0].Text)

	msgs := w.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "older", msgs[0].Text)
	assert.Equal(t, "oldest", msgs[1].Text)
}

func TestWindowLoadOlderEmptyWindow(t *testing.T) {
	store := &fakeMessageStore{}
	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))

	fresh, err := w.LoadOlder(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, fresh)
}

func TestWindowLoadOlderSuppressesReentrantCalls(t *testing.T) {
	base := time.Now().UTC()
	store := &fakeMessageStore{
		latest:  []entity.Message{testMessage("m", base, 1)},
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	entered := store.entered

	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = w.LoadOlder(context.Background())
	}()

	<-entered
	// the first fetch is still in flight; a rapid second scroll event is a no-op
	fresh, err := w.LoadOlder(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, fresh)

	close(store.release)
	<-done
}

func TestWindowLoadOlderTimeoutIsTransient(t *testing.T) {
	base := time.Now().UTC()
	store := &fakeMessageStore{
		latest: []entity.Message{testMessage("m", base, 1)},
		err:    context.DeadlineExceeded,
	}

	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))

	_, err := w.LoadOlder(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrTransient)

	// the guard is released afterwards
	assert.False(t, w.fetching.Load())
}

func TestWindowCloseDetachesFeed(t *testing.T) {
	store := &fakeMessageStore{}
	w := newWindow(store, "c1", "me", 30, 20)
	require.NoError(t, w.load(context.Background()))

	detached := false
	w.detach = func() { detached = true }

	w.Close()
	w.Close() // idempotent
	assert.True(t, detached)

	w.deliver(testMessage("after close", time.Now(), 1))
	assert.Empty(t, w.Messages())
}

func TestScrollAnchorOffset(t *testing.T) {
	var a ScrollAnchor

	// nothing captured yet
	assert.Zero(t, a.Offset(500))

	a.Capture(1000)
	assert.Equal(t, 400.0, a.Offset(1400))
	// disarmed after one use
	assert.Zero(t, a.Offset(1400))

	a.Capture(1000)
	a.Reset()
	assert.Zero(t, a.Offset(1400))
}
