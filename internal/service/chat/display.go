package chat

import (
	"time"

	"CrewChat/entity"
)

// DisplayMessage is a message with its sender's display identity resolved.
// Derived per render, never persisted.
type DisplayMessage struct {
	ID           string              `json:"id"`
	SenderID     string              `json:"sender_id"`
	SenderName   string              `json:"sender_name"`
	SenderAvatar string              `json:"sender_avatar,omitempty"`
	Text         string              `json:"text"`
	Attachments  []entity.Attachment `json:"attachments,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	Seq          int64               `json:"seq"`
	OwnMessage   bool                `json:"own_message"`
}

// ParticipantsMap builds the sender lookup once per conversation so message
// rendering never does per-message directory calls.
func ParticipantsMap(users []entity.User) map[string]entity.User {
	participants := make(map[string]entity.User, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		participants[u.ID] = u
	}
	return participants
}

// ToDisplayMessage resolves sender name and avatar via the participant map,
// falling back to the unknown-user placeholder.
func ToDisplayMessage(msg entity.Message, viewerID string, participants map[string]entity.User) DisplayMessage {
	display := DisplayMessage{
		ID:          msg.ID.Hex(),
		SenderID:    msg.SenderID,
		SenderName:  entity.UnknownUserName,
		Text:        msg.Text,
		Attachments: msg.Attachments,
		CreatedAt:   msg.CreatedAt,
		Seq:         msg.Seq,
		OwnMessage:  msg.SenderID == viewerID,
	}
	if sender, ok := participants[msg.SenderID]; ok {
		display.SenderName = sender.DisplayName()
		display.SenderAvatar = sender.Avatar
	}
	return display
}
