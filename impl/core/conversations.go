package core

import (
	"context"

	"CrewChat/entity"
)

func (c *Core) Conversations(ctx context.Context, userID string) ([]entity.ConversationListEntry, error) {
	return c.chat.Snapshot(ctx, userID)
}

func (c *Core) StartDirect(ctx context.Context, userID, targetUserID string) (*entity.Conversation, error) {
	return c.chat.StartDirect(ctx, userID, targetUserID)
}

func (c *Core) MarkRead(ctx context.Context, conversationID, userID string) error {
	return c.chat.MarkRead(ctx, conversationID, userID)
}
