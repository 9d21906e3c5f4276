package entity

import (
	"sort"
	"strings"
	"time"
)

// Conversation is a persisted thread, 1:1 or group.
//
// A 1:1 conversation id is a pure function of its two participant ids
// (see DirectConversationID), so at most one thread can exist per pair.
type Conversation struct {
	ID              string         `json:"id" bson:"_id"`
	Participants    []string       `json:"participants" bson:"participants"`
	IsGroup         bool           `json:"is_group" bson:"is_group"`
	GroupName       string         `json:"group_name,omitempty" bson:"group_name,omitempty"`
	CreatedBy       string         `json:"created_by" bson:"created_by"`
	LastMessageText string         `json:"last_message" bson:"last_message"`
	LastMessageAt   time.Time      `json:"last_message_at" bson:"last_message_at"`
	UnreadCounts    map[string]int `json:"unread" bson:"unread"`
	CreatedAt       time.Time      `json:"created_at" bson:"created_at"`
}

// DirectConversationID derives the canonical id for a 1:1 thread.
// Order-independent: DirectConversationID(a, b) == DirectConversationID(b, a).
func DirectConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "_")
}

func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Peer returns the other participant of a 1:1 thread, or "" when the
// record is malformed or a group.
func (c *Conversation) Peer(userID string) string {
	if c.IsGroup {
		return ""
	}
	for _, p := range c.Participants {
		if p != userID && p != "" {
			return p
		}
	}
	return ""
}

func (c *Conversation) UnreadFor(userID string) int {
	if c.UnreadCounts == nil {
		return 0
	}
	return c.UnreadCounts[userID]
}

// ConversationListEntry is a reconciled, display-ready row of the
// conversation list. Derived, never persisted.
type ConversationListEntry struct {
	ID            string    `json:"id,omitempty"`
	TargetUserID  string    `json:"target_user_id,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_at,omitzero"`
	UnreadCount   int       `json:"unread_count"`
	IsOnline      bool      `json:"is_online"`
	IsGroup       bool      `json:"is_group"`
	IsChat        bool      `json:"is_chat"`
}
