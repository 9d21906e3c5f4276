// Package chat implements the conversation aggregation and real-time
// messaging engine: reconciliation of real threads with directory
// contacts, the paginated live message log, unread tracking, and group
// membership.
package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"CrewChat/entity"
	"CrewChat/internal/lib/sl"
	"CrewChat/internal/service/directory"
	"CrewChat/internal/service/presence"
)

// Repository is the persistent store collaborator. All counter updates and
// the 1:1 create-if-absent are atomic store operations on the other side
// of this interface; the service never does read-modify-write on them.
type Repository interface {
	messageStore

	EnsureDirectConversation(ctx context.Context, a, b string) (*entity.Conversation, error)
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	ConversationsFor(ctx context.Context, userID string) ([]entity.Conversation, error)
	InsertGroupConversation(ctx context.Context, conv entity.Conversation) error
	AddParticipants(ctx context.Context, convID string, userIDs []string) error
	RemoveParticipant(ctx context.Context, convID, userID string) error
	DeleteConversation(ctx context.Context, convID string) error
	TouchLastMessage(ctx context.Context, convID, text string, at time.Time) error
	AppendMessage(ctx context.Context, msg entity.Message) (*entity.Message, error)
	IncrementUnread(ctx context.Context, convID string, participants []string, senderID string) error
	ResetUnread(ctx context.Context, convID, userID string) error
}

// Broadcaster pushes live events to connected clients. Events are always
// targeted at conversation participants, never broadcast globally.
type Broadcaster interface {
	SendToUsers(userIDs []string, event string, data any)
}

// VisibilityFilter hides rows from a viewer's reconciled list. Supplied by
// the surrounding application; nil shows everything.
type VisibilityFilter func(viewer entity.UserAuth, entry entity.ConversationListEntry) bool

type Options struct {
	WindowSize  int
	PageSize    int
	CompanyName string
}

type Service struct {
	repository  Repository
	directory   directory.Directory
	presence    *presence.Tracker
	broadcaster Broadcaster
	visible     VisibilityFilter
	opts        Options
	log         *slog.Logger

	mu       sync.Mutex
	listSubs map[string]*notifier[listSnapshot]
	msgFeeds map[string]*notifier[entity.Message]

	cancelPresence func()
	recomputeKick  chan struct{}
	recomputeDone  chan struct{}
}

func NewService(opts Options, logger *slog.Logger) *Service {
	if opts.WindowSize <= 0 {
		opts.WindowSize = 30
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 20
	}
	return &Service{
		opts:     opts,
		log:      logger.With(sl.Module("chat-service")),
		listSubs: make(map[string]*notifier[listSnapshot]),
		msgFeeds: make(map[string]*notifier[entity.Message]),
	}
}

func (s *Service) SetRepository(repository Repository)   { s.repository = repository }
func (s *Service) SetDirectory(dir directory.Directory)  { s.directory = dir }
func (s *Service) SetPresence(tracker *presence.Tracker) { s.presence = tracker }
func (s *Service) SetBroadcaster(b Broadcaster)          { s.broadcaster = b }
func (s *Service) SetVisibilityFilter(f VisibilityFilter) { s.visible = f }

// Init hooks the presence feed so the conversation list recomputes when
// anyone goes on- or offline. Recomputes run on their own worker: presence
// callbacks fire on connection goroutines and must not block on store
// round-trips. Bursts coalesce into a single pending recompute.
func (s *Service) Init() {
	if s.presence == nil {
		return
	}
	s.recomputeKick = make(chan struct{}, 1)
	s.recomputeDone = make(chan struct{})
	go func() {
		defer close(s.recomputeDone)
		for range s.recomputeKick {
			s.recomputeAllLists()
		}
	}()
	kick := s.recomputeKick
	s.cancelPresence = s.presence.OnChange(func() {
		select {
		case kick <- struct{}{}:
		default: // a recompute is already pending and will pick this change up
		}
	})
}

// Close releases the presence hook and stops the recompute worker.
func (s *Service) Close() {
	if s.cancelPresence != nil {
		s.cancelPresence()
		s.cancelPresence = nil
	}
	if s.recomputeKick != nil {
		close(s.recomputeKick)
		<-s.recomputeDone
		s.recomputeKick = nil
	}
}

// Snapshot computes the reconciled conversation list for one user.
func (s *Service) Snapshot(ctx context.Context, userID string) ([]entity.ConversationListEntry, error) {
	if s.repository == nil || s.directory == nil {
		return nil, entity.TransientError("chat service not fully configured")
	}

	user, err := s.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	conversations, err := s.repository.ConversationsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	contacts, err := s.directory.ListContacts(ctx, userID, user.Role)
	if err != nil {
		// A partially-loaded directory must not blank the whole list.
		s.log.Warn("contact listing failed, reconciling threads only", sl.Err(err))
		contacts = nil
	}

	users, err := s.directory.UsersByID(ctx, participantIDs(conversations))
	if err != nil {
		s.log.Warn("participant lookup failed, using placeholders", sl.Err(err))
		users = nil
	}

	in := ReconcileInput{
		UserID:        userID,
		Role:          user.Role,
		AdminID:       user.CreatedBy,
		CompanyName:   s.opts.CompanyName,
		Conversations: conversations,
		Contacts:      contacts,
		Users:         users,
	}
	if s.presence != nil {
		online := s.presence.Snapshot()
		in.IsOnline = func(id string) bool { return online[id] }
	}
	if s.visible != nil {
		viewer := entity.UserAuth{UserID: userID, Name: user.Name, Role: user.Role}
		in.Visible = func(entry entity.ConversationListEntry) bool {
			return s.visible(viewer, entry)
		}
	}

	return Reconcile(in), nil
}

// SubscribeList opens a live conversation-list feed: the callback gets the
// current snapshot immediately and a fresh one after every relevant
// change. List subscriptions live for the whole session.
func (s *Service) SubscribeList(ctx context.Context, userID string, fn func([]entity.ConversationListEntry)) (*ListSubscription, error) {
	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	fn(snapshot)

	s.mu.Lock()
	feed, ok := s.listSubs[userID]
	if !ok {
		feed = newNotifier[listSnapshot]()
		s.listSubs[userID] = feed
	}
	s.mu.Unlock()

	cancel := feed.subscribe(fn)
	return &ListSubscription{cancel: func() {
		cancel()
		s.mu.Lock()
		if f, ok := s.listSubs[userID]; ok && f.empty() {
			delete(s.listSubs, userID)
		}
		s.mu.Unlock()
	}}, nil
}

// StartDirect ensures the 1:1 thread between the caller and the target
// exists and returns it. Racing callers converge on the same record.
func (s *Service) StartDirect(ctx context.Context, userID, targetID string) (*entity.Conversation, error) {
	if _, err := s.directory.GetUser(ctx, targetID); err != nil {
		return nil, err
	}
	conv, err := s.repository.EnsureDirectConversation(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	s.recomputeLists(conv.Participants...)
	return conv, nil
}

// OpenConversation attaches a live message window and marks the
// conversation read for the opener.
func (s *Service) OpenConversation(ctx context.Context, convID, userID string) (*Window, error) {
	conv, err := s.conversationFor(ctx, convID, userID)
	if err != nil {
		return nil, err
	}

	w := newWindow(s.repository, convID, userID, s.opts.WindowSize, s.opts.PageSize)
	if err := w.load(ctx); err != nil {
		return nil, err
	}

	feed := s.messageFeed(convID)
	w.detach = feed.subscribe(w.deliver)

	if err := s.repository.ResetUnread(ctx, convID, userID); err != nil {
		s.log.Warn("reset unread on open failed", sl.Err(err),
			slog.String("conversation_id", convID))
	} else {
		s.recomputeLists(userID)
		s.broadcastReadReceipt(conv, userID)
	}

	return w, nil
}

// SendMessage validates, appends, fans out unread counters and notifies
// every participant's live views.
func (s *Service) SendMessage(ctx context.Context, convID, senderID, text string, attachments []entity.Attachment) (*entity.Message, error) {
	if text == "" && len(attachments) == 0 {
		return nil, entity.ValidationError("message needs text or attachments")
	}

	conv, err := s.conversationFor(ctx, convID, senderID)
	if err != nil {
		return nil, err
	}

	msg, err := s.repository.AppendMessage(ctx, entity.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Text:           text,
		Attachments:    attachments,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repository.TouchLastMessage(ctx, convID, preview(msg), msg.CreatedAt); err != nil {
		s.log.Warn("touch last message failed", sl.Err(err))
	}
	if err := s.repository.IncrementUnread(ctx, convID, conv.Participants, senderID); err != nil {
		s.log.Warn("increment unread failed", sl.Err(err))
	}

	s.messageFeed(convID).publish(*msg)
	s.recomputeLists(conv.Participants...)
	if s.broadcaster != nil {
		s.broadcaster.SendToUsers(conv.Participants, "message:new", msg)
	}

	return msg, nil
}

// Latest returns the newest window of the conversation for a participant.
func (s *Service) Latest(ctx context.Context, convID, userID string, limit int) ([]entity.Message, error) {
	if _, err := s.conversationFor(ctx, convID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.WindowSize
	}
	return s.repository.LatestMessages(ctx, convID, limit)
}

// PageBefore returns the page strictly older than the given cursor for a
// participant.
func (s *Service) PageBefore(ctx context.Context, convID, userID string, beforeAt time.Time, beforeSeq int64, limit int) ([]entity.Message, error) {
	if _, err := s.conversationFor(ctx, convID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.PageSize
	}
	return s.repository.MessagesBefore(ctx, convID, beforeAt, beforeSeq, limit)
}

// MarkRead zeroes the caller's unread counter for the conversation.
func (s *Service) MarkRead(ctx context.Context, convID, userID string) error {
	conv, err := s.conversationFor(ctx, convID, userID)
	if err != nil {
		return err
	}
	if err := s.repository.ResetUnread(ctx, convID, userID); err != nil {
		return err
	}
	s.recomputeLists(userID)
	s.broadcastReadReceipt(conv, userID)
	return nil
}

// Typing relays a typing indicator to the other participants. Nothing is
// persisted.
func (s *Service) Typing(ctx context.Context, convID, userID string) {
	conv, err := s.conversationFor(ctx, convID, userID)
	if err != nil || s.broadcaster == nil {
		return
	}
	s.broadcaster.SendToUsers(othersOf(conv, userID), "typing", map[string]string{
		"conversation_id": convID,
		"user_id":         userID,
	})
}

// conversationFor loads the conversation and checks membership.
func (s *Service) conversationFor(ctx context.Context, convID, userID string) (*entity.Conversation, error) {
	conv, err := s.repository.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, entity.NotFoundError("conversation %s", convID)
	}
	if !conv.HasParticipant(userID) {
		return nil, entity.PermissionError("user %s is not a participant of %s", userID, convID)
	}
	return conv, nil
}

func (s *Service) broadcastReadReceipt(conv *entity.Conversation, userID string) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.SendToUsers(othersOf(conv, userID), "read_receipt", map[string]string{
		"conversation_id": conv.ID,
		"user_id":         userID,
	})
}

func (s *Service) messageFeed(convID string) *notifier[entity.Message] {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.msgFeeds[convID]
	if !ok {
		feed = newNotifier[entity.Message]()
		s.msgFeeds[convID] = feed
	}
	return feed
}

// recomputeLists rebuilds and republishes the conversation list for each
// user that currently holds a list subscription.
func (s *Service) recomputeLists(userIDs ...string) {
	for _, userID := range userIDs {
		s.mu.Lock()
		feed, ok := s.listSubs[userID]
		s.mu.Unlock()
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		snapshot, err := s.Snapshot(ctx, userID)
		cancel()
		if err != nil {
			s.log.Warn("list recompute failed", sl.Err(err), slog.String("user_id", userID))
			continue
		}
		feed.publish(snapshot)
	}
}

func (s *Service) recomputeAllLists() {
	s.mu.Lock()
	userIDs := make([]string, 0, len(s.listSubs))
	for userID := range s.listSubs {
		userIDs = append(userIDs, userID)
	}
	s.mu.Unlock()

	s.recomputeLists(userIDs...)
}

func participantIDs(conversations []entity.Conversation) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, conv := range conversations {
		for _, p := range conv.Participants {
			if p != "" && !seen[p] {
				seen[p] = true
				ids = append(ids, p)
			}
		}
	}
	return ids
}

func othersOf(conv *entity.Conversation, userID string) []string {
	others := make([]string, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p != userID {
			others = append(others, p)
		}
	}
	return others
}

func preview(msg *entity.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	if len(msg.Attachments) > 0 {
		return msg.Attachments[0].Name
	}
	return ""
}
