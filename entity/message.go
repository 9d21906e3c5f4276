package entity

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a single message in a conversation. Immutable once created;
// ordering within a conversation is (created_at, seq), both server-assigned.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationID string             `json:"conversation_id" bson:"conversation_id"`
	SenderID       string             `json:"sender_id" bson:"sender_id"`
	Text           string             `json:"text" bson:"text"`
	Attachments    []Attachment       `json:"attachments,omitempty" bson:"attachments,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
	Seq            int64              `json:"seq" bson:"seq"`
	Read           bool               `json:"read" bson:"read"`
}

// Before reports whether m was appended strictly before other.
// Ties on created_at are broken by the store-assigned sequence.
func (m *Message) Before(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.Seq < other.Seq
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
