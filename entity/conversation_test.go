package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDirectConversationIDOrderIndependent(t *testing.T) {
	assert.Equal(t, DirectConversationID("alice", "bob"), DirectConversationID("bob", "alice"))
	assert.Equal(t, "alice_bob", DirectConversationID("bob", "alice"))
}

func TestConversationPeer(t *testing.T) {
	conv := Conversation{Participants: []string{"alice", "bob"}}
	assert.Equal(t, "bob", conv.Peer("alice"))
	assert.Equal(t, "alice", conv.Peer("bob"))

	group := Conversation{IsGroup: true, Participants: []string{"alice", "bob"}}
	assert.Empty(t, group.Peer("alice"))

	malformed := Conversation{Participants: []string{"alice", ""}}
	assert.Empty(t, malformed.Peer("alice"))
}

func TestUnreadFor(t *testing.T) {
	conv := Conversation{UnreadCounts: map[string]int{"alice": 3}}
	assert.Equal(t, 3, conv.UnreadFor("alice"))
	assert.Equal(t, 0, conv.UnreadFor("bob"))

	var empty Conversation
	assert.Equal(t, 0, empty.UnreadFor("alice"))
}

func TestMessageBefore(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	a := Message{CreatedAt: at, Seq: 1}
	b := Message{CreatedAt: at.Add(time.Second), Seq: 2}
	assert.True(t, a.Before(&b))
	assert.False(t, b.Before(&a))

	// same timestamp resolves by the store-assigned sequence
	c := Message{CreatedAt: at, Seq: 2}
	assert.True(t, a.Before(&c))
	assert.False(t, c.Before(&a))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Alice", (&User{Name: "Alice", Email: "a@x.test"}).DisplayName())
	assert.Equal(t, "a@x.test", (&User{Email: "a@x.test"}).DisplayName())
	assert.Equal(t, UnknownUserName, (&User{}).DisplayName())
}
