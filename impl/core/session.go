package core

import (
	"context"
	"sync"
	"time"

	"CrewChat/entity"
	"CrewChat/internal/lib/sl"
	"CrewChat/internal/service/chat"

	"log/slog"
)

// session is the per-user live state: the conversation-list feed plus at
// most one open message window. Multiple connections of the same user
// (tabs, devices) share it via refcounting.
type session struct {
	refs int
	list *chat.ListSubscription

	mu           sync.Mutex
	window       *chat.Window
	windowCancel chat.CancelFunc
	participants map[string]entity.User
	convID       string
}

func (s *session) closeWindow() {
	s.mu.Lock()
	cancel := s.windowCancel
	w := s.window
	s.window = nil
	s.windowCancel = nil
	s.participants = nil
	s.convID = ""
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if w != nil {
		w.Close()
	}
}

// HandleConnect opens (or joins) the user's live session and starts the
// conversation-list feed.
func (c *Core) HandleConnect(userID string) {
	c.sessionsMu.Lock()
	if s, ok := c.sessions[userID]; ok {
		s.refs++
		c.sessionsMu.Unlock()
		return
	}
	s := &session{refs: 1}
	c.sessions[userID] = s
	c.sessionsMu.Unlock()

	// The initial snapshot hits the store; keep it off the hub loop.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		sub, err := c.chat.SubscribeList(ctx, userID, func(rows []entity.ConversationListEntry) {
			if c.broadcaster != nil {
				c.broadcaster.SendToUsers([]string{userID}, "conversation:list", rows)
			}
		})
		if err != nil {
			c.log.Warn("list subscription failed", sl.Err(err), slog.String("user_id", userID))
			return
		}

		c.sessionsMu.Lock()
		if c.sessions[userID] != s {
			// all connections dropped before the subscription came up
			c.sessionsMu.Unlock()
			sub.Cancel()
			return
		}
		s.list = sub
		c.sessionsMu.Unlock()
	}()
}

// HandleDisconnect releases one connection; the session tears down when
// the last one drops.
func (c *Core) HandleDisconnect(userID string) {
	c.sessionsMu.Lock()
	s, ok := c.sessions[userID]
	if !ok {
		c.sessionsMu.Unlock()
		return
	}
	s.refs--
	if s.refs > 0 {
		c.sessionsMu.Unlock()
		return
	}
	delete(c.sessions, userID)
	list := s.list
	c.sessionsMu.Unlock()

	if list != nil {
		list.Cancel()
	}
	s.closeWindow()
}

func (c *Core) sessionFor(userID string) *session {
	c.sessionsMu.Lock()
	defer c.sessionsMu.Unlock()
	return c.sessions[userID]
}

// HandleOpenConversation switches the user's active conversation: the
// previous window is closed, the new one loads the latest messages, marks
// the conversation read and streams snapshots to the user.
func (c *Core) HandleOpenConversation(userID, conversationID string) error {
	s := c.sessionFor(userID)
	if s == nil {
		return entity.TransientError("no live session for user %s", userID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	w, err := c.chat.OpenConversation(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	participants, err := c.participantsOf(ctx, conversationID)
	if err != nil {
		c.log.Warn("participant lookup failed", sl.Err(err),
			slog.String("conversation_id", conversationID))
		participants = nil
	}

	s.closeWindow()

	s.mu.Lock()
	s.window = w
	s.participants = participants
	s.convID = conversationID
	s.mu.Unlock()

	// Subscribe delivers the initial snapshot synchronously.
	detach := w.Subscribe(func(msgs []entity.Message) {
		c.pushWindowSnapshot(userID, conversationID, msgs, participants)
	})

	s.mu.Lock()
	if s.window == w {
		s.windowCancel = detach
		s.mu.Unlock()
	} else {
		// the user switched again while we were loading
		s.mu.Unlock()
		detach()
		w.Close()
	}
	return nil
}

// HandleCloseConversation drops the user's active window.
func (c *Core) HandleCloseConversation(userID string) {
	if s := c.sessionFor(userID); s != nil {
		s.closeWindow()
	}
}

// HandleLoadOlder backfills one page into the user's active window. The
// resulting snapshot reaches the client through the window subscription;
// concurrent calls are suppressed by the window itself.
func (c *Core) HandleLoadOlder(userID string) error {
	s := c.sessionFor(userID)
	if s == nil {
		return nil
	}

	s.mu.Lock()
	w := s.window
	s.mu.Unlock()
	if w == nil {
		return nil
	}

	_, err := w.LoadOlder(context.Background())
	return err
}

func (c *Core) pushWindowSnapshot(userID, conversationID string, msgs []entity.Message, participants map[string]entity.User) {
	if c.broadcaster == nil {
		return
	}

	display := make([]chat.DisplayMessage, 0, len(msgs))
	for _, msg := range msgs {
		c.signAttachments(msg.Attachments)
		display = append(display, chat.ToDisplayMessage(msg, userID, participants))
	}

	c.broadcaster.SendToUsers([]string{userID}, "conversation:messages", map[string]any{
		"conversation_id": conversationID,
		"messages":        display,
	})
}
