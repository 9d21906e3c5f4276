package group

import (
	"context"

	"CrewChat/entity"
)

// Core is the application surface the group handlers depend on. The
// requester's admin flag travels explicitly so the chat service stays
// testable without auth machinery.
type Core interface {
	CreateGroup(ctx context.Context, requester *entity.UserAuth, name string, participantIDs []string) (*entity.Conversation, error)
	AddParticipants(ctx context.Context, conversationID string, requester *entity.UserAuth, userIDs []string) error
	RemoveParticipant(ctx context.Context, conversationID string, requester *entity.UserAuth, userID string) error
	DeleteConversation(ctx context.Context, conversationID string, requester *entity.UserAuth) error
}
