package entity

// UserAuth is the authenticated caller attached to a request context.
type UserAuth struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

func (a *UserAuth) IsAdmin() bool {
	return a != nil && a.Role == AdminRole
}
