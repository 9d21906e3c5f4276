// Package cont carries the authenticated user through request contexts.
package cont

import (
	"context"

	"CrewChat/entity"
)

type ctxKey int

const userKey ctxKey = iota

func PutUser(ctx context.Context, user *entity.UserAuth) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// User returns the authenticated caller, or nil when the request was not
// authenticated.
func User(ctx context.Context) *entity.UserAuth {
	user, ok := ctx.Value(userKey).(*entity.UserAuth)
	if !ok {
		return nil
	}
	return user
}
