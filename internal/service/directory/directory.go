// Package directory resolves user identity and contact lists for the chat
// engine. The rest of the product owns user records; this service only
// reads them.
package directory

import (
	"context"
	"log/slog"

	"CrewChat/entity"
	"CrewChat/internal/lib/sl"
)

// Directory is the identity collaborator consumed by the chat service.
type Directory interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
	ListContacts(ctx context.Context, forUserID, role string) ([]entity.Contact, error)
	UsersByID(ctx context.Context, ids []string) (map[string]entity.User, error)
}

type Repository interface {
	GetUserByID(ctx context.Context, id string) (*entity.User, error)
	ListUsers(ctx context.Context) ([]entity.User, error)
}

type Service struct {
	repository Repository
	log        *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	return &Service{
		log: logger.With(sl.Module("directory")),
	}
}

func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

func (s *Service) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if s.repository == nil {
		return nil, entity.TransientError("directory repository not configured")
	}
	user, err := s.repository.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, entity.NotFoundError("user %s", id)
	}
	return user, nil
}

// ListContacts returns the directory entries the caller may start a
// conversation with. Admins see the whole organization; employees only see
// threads they already have plus the injected admin row, so their contact
// list is empty.
func (s *Service) ListContacts(ctx context.Context, forUserID, role string) ([]entity.Contact, error) {
	if role != entity.AdminRole {
		return nil, nil
	}
	if s.repository == nil {
		return nil, entity.TransientError("directory repository not configured")
	}

	users, err := s.repository.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	contacts := make([]entity.Contact, 0, len(users))
	for _, u := range users {
		if u.ID == "" || u.ID == forUserID {
			continue
		}
		contacts = append(contacts, entity.Contact{
			TargetUserID: u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Avatar:       u.Avatar,
			Role:         u.Role,
		})
	}
	return contacts, nil
}

// UsersByID resolves a participant lookup map in one pass. Unknown ids are
// simply absent from the result; callers fall back to placeholders.
func (s *Service) UsersByID(ctx context.Context, ids []string) (map[string]entity.User, error) {
	if s.repository == nil {
		return nil, entity.TransientError("directory repository not configured")
	}

	users, err := s.repository.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	result := make(map[string]entity.User, len(ids))
	for _, u := range users {
		if u.ID != "" && want[u.ID] {
			result[u.ID] = u
		}
	}
	return result, nil
}
