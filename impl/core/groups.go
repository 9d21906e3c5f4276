package core

import (
	"context"

	"CrewChat/entity"
)

func (c *Core) CreateGroup(ctx context.Context, requester *entity.UserAuth, name string, participantIDs []string) (*entity.Conversation, error) {
	return c.chat.CreateGroup(ctx, requester.UserID, requester.IsAdmin(), name, participantIDs)
}

func (c *Core) AddParticipants(ctx context.Context, conversationID string, requester *entity.UserAuth, userIDs []string) error {
	return c.chat.AddParticipants(ctx, conversationID, requester.UserID, requester.IsAdmin(), userIDs)
}

func (c *Core) RemoveParticipant(ctx context.Context, conversationID string, requester *entity.UserAuth, userID string) error {
	return c.chat.RemoveParticipant(ctx, conversationID, requester.UserID, requester.IsAdmin(), userID)
}

func (c *Core) DeleteConversation(ctx context.Context, conversationID string, requester *entity.UserAuth) error {
	return c.chat.DeleteConversation(ctx, conversationID, requester.UserID, requester.IsAdmin())
}
