package conversation

import (
	"context"

	"CrewChat/entity"
)

// Core is the application surface the conversation handlers depend on.
type Core interface {
	Conversations(ctx context.Context, userID string) ([]entity.ConversationListEntry, error)
	StartDirect(ctx context.Context, userID, targetUserID string) (*entity.Conversation, error)
	MarkRead(ctx context.Context, conversationID, userID string) error
}
