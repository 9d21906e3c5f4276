package chat

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"CrewChat/entity"
	"CrewChat/internal/service/presence"
)

// Presence callbacks fire on connection goroutines; a change must return
// immediately and the list refresh must land on the recompute worker.
func TestPresenceChangeRecomputesListsOffCaller(t *testing.T) {
	repo := newFakeRepository()
	repo.addConversation(entity.Conversation{
		ID:           entity.DirectConversationID("alice", "bob"),
		Participants: []string{"alice", "bob"},
		UnreadCounts: map[string]int{},
	})
	dir := &fakeDirectory{users: map[string]entity.User{
		"alice": {ID: "alice", Role: entity.AdminRole},
		"bob":   {ID: "bob", Name: "Bob"},
	}}
	s := newTestService(repo, dir, nil)

	tracker := presence.NewTracker(time.Minute, slog.Default())
	s.SetPresence(tracker)
	s.Init()
	defer s.Close()

	var mu sync.Mutex
	count := 0
	sub, err := s.SubscribeList(context.Background(), "bob", func(rows []entity.ConversationListEntry) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Cancel()

	start := time.Now()
	tracker.Connected("alice")
	require.Less(t, time.Since(start), time.Second)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
