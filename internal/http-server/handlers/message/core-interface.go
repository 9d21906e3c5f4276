package message

import (
	"context"
	"time"

	"CrewChat/entity"
	"CrewChat/internal/service/chat"
)

// Core is the application surface the message handlers depend on.
type Core interface {
	// Messages returns the newest window when no cursor is given, or the
	// page strictly before the (beforeAt, beforeSeq) cursor.
	Messages(ctx context.Context, conversationID, userID string, beforeAt time.Time, beforeSeq int64, limit int) ([]chat.DisplayMessage, error)
	Send(ctx context.Context, conversationID, senderID, text string, attachments []entity.Attachment) (*entity.Message, error)
}
