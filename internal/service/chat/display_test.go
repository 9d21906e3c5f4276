package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"CrewChat/entity"
)

func TestParticipantsMapSkipsEmptyIDs(t *testing.T) {
	m := ParticipantsMap([]entity.User{
		{ID: "a", Name: "Alice"},
		{Name: "no id"},
		{ID: "b", Email: "b@acme.test"},
	})

	assert.Len(t, m, 2)
	assert.Equal(t, "Alice", m["a"].Name)
}

func TestToDisplayMessage(t *testing.T) {
	participants := map[string]entity.User{
		"alice": {ID: "alice", Name: "Alice", Avatar: "a.png"},
		"noname": {ID: "noname", Email: "n@acme.test"},
	}
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	msg := entity.Message{
		ID:        primitive.NewObjectID(),
		SenderID:  "alice",
		Text:      "hi",
		CreatedAt: at,
		Seq:       7,
	}

	own := ToDisplayMessage(msg, "alice", participants)
	assert.True(t, own.OwnMessage)
	assert.Equal(t, "Alice", own.SenderName)
	assert.Equal(t, "a.png", own.SenderAvatar)
	assert.Equal(t, msg.ID.Hex(), own.ID)
	assert.Equal(t, int64(7), own.Seq)

	other := ToDisplayMessage(msg, "bob", participants)
	assert.False(t, other.OwnMessage)

	msg.SenderID = "noname"
	byEmail := ToDisplayMessage(msg, "bob", participants)
	assert.Equal(t, "n@acme.test", byEmail.SenderName)

	msg.SenderID = "deleted-user"
	unknown := ToDisplayMessage(msg, "bob", participants)
	assert.Equal(t, entity.UnknownUserName, unknown.SenderName)
}
