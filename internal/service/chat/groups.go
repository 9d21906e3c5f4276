package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"CrewChat/entity"
)

// Group membership management. Authorization arrives as an explicit
// isAdmin flag so the rules stay testable without the auth machinery; the
// HTTP layer derives the flag from the authenticated caller.

// CreateGroup creates a group conversation. The requester is always part
// of the participant set.
func (s *Service) CreateGroup(ctx context.Context, requesterID string, isAdmin bool, name string, participantIDs []string) (*entity.Conversation, error) {
	if !isAdmin {
		return nil, entity.PermissionError("only admins can create groups")
	}
	if name == "" {
		return nil, entity.ValidationError("group name required")
	}
	if len(participantIDs) == 0 {
		return nil, entity.ValidationError("group needs at least one participant")
	}

	participants := dedupIDs(append([]string{requesterID}, participantIDs...))

	conv := entity.Conversation{
		ID:           uuid.NewString(),
		Participants: participants,
		IsGroup:      true,
		GroupName:    name,
		CreatedBy:    requesterID,
		UnreadCounts: map[string]int{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repository.InsertGroupConversation(ctx, conv); err != nil {
		return nil, err
	}

	s.recomputeLists(participants...)
	s.notifyConversationUpdate(&conv)
	return &conv, nil
}

// AddParticipants adds users to a group. The participant-set and metadata
// change is one atomic store update.
func (s *Service) AddParticipants(ctx context.Context, convID, requesterID string, isAdmin bool, userIDs []string) error {
	if !isAdmin {
		return entity.PermissionError("only admins can modify group members")
	}
	if len(userIDs) == 0 {
		return entity.ValidationError("no participants given")
	}

	conv, err := s.groupFor(ctx, convID)
	if err != nil {
		return err
	}

	if err := s.repository.AddParticipants(ctx, convID, dedupIDs(userIDs)); err != nil {
		return err
	}

	affected := dedupIDs(append(conv.Participants, userIDs...))
	s.recomputeLists(affected...)
	s.notifyConversationUpdateID(convID, affected)
	return nil
}

// RemoveParticipant removes one user from a group.
func (s *Service) RemoveParticipant(ctx context.Context, convID, requesterID string, isAdmin bool, userID string) error {
	if !isAdmin {
		return entity.PermissionError("only admins can modify group members")
	}
	if userID == "" {
		return entity.ValidationError("participant id required")
	}

	conv, err := s.groupFor(ctx, convID)
	if err != nil {
		return err
	}

	if err := s.repository.RemoveParticipant(ctx, convID, userID); err != nil {
		return err
	}

	// The removed user still gets a final list update; their row vanishes.
	s.recomputeLists(conv.Participants...)
	s.notifyConversationUpdateID(convID, conv.Participants)
	return nil
}

// DeleteConversation removes a thread and its message log entirely.
func (s *Service) DeleteConversation(ctx context.Context, convID, requesterID string, isAdmin bool) error {
	if !isAdmin {
		return entity.PermissionError("only admins can delete conversations")
	}

	conv, err := s.repository.GetConversation(ctx, convID)
	if err != nil {
		return err
	}
	if conv == nil {
		return entity.NotFoundError("conversation %s", convID)
	}

	if err := s.repository.DeleteConversation(ctx, convID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.msgFeeds, convID)
	s.mu.Unlock()

	s.recomputeLists(conv.Participants...)
	s.notifyConversationUpdateID(convID, conv.Participants)
	return nil
}

func (s *Service) groupFor(ctx context.Context, convID string) (*entity.Conversation, error) {
	conv, err := s.repository.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, entity.NotFoundError("conversation %s", convID)
	}
	if !conv.IsGroup {
		return nil, entity.ValidationError("conversation %s is not a group", convID)
	}
	return conv, nil
}

func (s *Service) notifyConversationUpdate(conv *entity.Conversation) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.SendToUsers(conv.Participants, "conversation:update", map[string]string{
		"conversation_id": conv.ID,
	})
}

func (s *Service) notifyConversationUpdateID(convID string, participants []string) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.SendToUsers(participants, "conversation:update", map[string]string{
		"conversation_id": convID,
	})
}

func dedupIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}
