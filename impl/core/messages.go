package core

import (
	"context"
	"time"

	"CrewChat/entity"
	"CrewChat/internal/lib/fileurl"
	"CrewChat/internal/lib/sl"
	"CrewChat/internal/service/chat"
)

// Messages serves a page of display-ready messages: the newest window
// when no cursor is given, otherwise the page strictly before the cursor.
func (c *Core) Messages(ctx context.Context, conversationID, userID string, beforeAt time.Time, beforeSeq int64, limit int) ([]chat.DisplayMessage, error) {
	var (
		messages []entity.Message
		err      error
	)
	if beforeAt.IsZero() {
		messages, err = c.chat.Latest(ctx, conversationID, userID, limit)
	} else {
		messages, err = c.chat.PageBefore(ctx, conversationID, userID, beforeAt, beforeSeq, limit)
	}
	if err != nil {
		return nil, err
	}

	participants, err := c.participantsOf(ctx, conversationID)
	if err != nil {
		// Render with placeholders rather than failing the page.
		c.log.Warn("participant lookup failed", sl.Err(err))
		participants = nil
	}

	display := make([]chat.DisplayMessage, 0, len(messages))
	for _, msg := range messages {
		c.signAttachments(msg.Attachments)
		display = append(display, chat.ToDisplayMessage(msg, userID, participants))
	}
	return display, nil
}

func (c *Core) Send(ctx context.Context, conversationID, senderID, text string, attachments []entity.Attachment) (*entity.Message, error) {
	msg, err := c.chat.SendMessage(ctx, conversationID, senderID, text, attachments)
	if err != nil {
		return nil, err
	}
	c.signAttachments(msg.Attachments)
	return msg, nil
}

// participantsOf builds the sender lookup map once per page.
func (c *Core) participantsOf(ctx context.Context, conversationID string) (map[string]entity.User, error) {
	if c.repository == nil {
		return nil, entity.TransientError("repository not configured")
	}
	conv, err := c.repository.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, entity.NotFoundError("conversation %s", conversationID)
	}
	return c.directory.UsersByID(ctx, conv.Participants)
}

func (c *Core) signAttachments(attachments []entity.Attachment) {
	if c.fileSecret == "" {
		return
	}
	for i := range attachments {
		attachments[i].URL = fileurl.SignURL(attachments[i].FileID.Hex(), c.fileSecret, c.fileTTL)
	}
}
