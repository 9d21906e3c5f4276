package core

import (
	"context"
	"fmt"
	"time"

	"CrewChat/entity"
)

// AuthenticateByToken resolves a bearer token (api key) to the calling
// user. Implements both the HTTP middleware and websocket authenticator.
func (c *Core) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if c.repository == nil {
		return nil, entity.TransientError("repository not configured")
	}

	userID, err := c.repository.CheckApiKey(token)
	if err != nil {
		return nil, fmt.Errorf("check api key: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	user, err := c.directory.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Blocked {
		return nil, entity.PermissionError("user %s is blocked", userID)
	}

	return &entity.UserAuth{
		UserID: user.ID,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}
