package core

import (
	"context"
	"time"
)

// HandleMarkRead processes a mark_read frame from a websocket client.
func (c *Core) HandleMarkRead(userID, conversationID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.chat.MarkRead(ctx, conversationID, userID)
}

// HandleTyping relays a typing indicator to the conversation's other
// participants.
func (c *Core) HandleTyping(userID, conversationID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.chat.Typing(ctx, conversationID, userID)
}
