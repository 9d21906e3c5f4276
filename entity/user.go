package entity

import (
	"time"
)

type User struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name" validate:"omitempty"`
	Email     string    `json:"email" bson:"email" validate:"omitempty,email"`
	Avatar    string    `json:"avatar" bson:"avatar" validate:"omitempty"`
	Role      string    `json:"role" bson:"role" validate:"omitempty"`
	CreatedBy string    `json:"created_by" bson:"created_by" validate:"omitempty"`
	Blocked   bool      `json:"blocked" bson:"blocked"`
	LastSeen  time.Time `json:"last_seen" bson:"lastSeen"`
}

const (
	AdminRole    = "admin"
	EmployeeRole = "employee"
)

// UnknownUserName is the placeholder shown when a participant's profile
// cannot be resolved. Reconciliation treats it as replaceable.
const UnknownUserName = "Unknown User"

func (u *User) IsAdmin() bool {
	return u.Role == AdminRole
}

// DisplayName falls back to the email, then to the placeholder.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Email != "" {
		return u.Email
	}
	return UnknownUserName
}

// Contact is a directory entry with no conversation yet. Reconciliation
// shows it as a startable thread.
type Contact struct {
	TargetUserID string `json:"target_user_id" bson:"target_user_id"`
	Name         string `json:"name" bson:"name"`
	Email        string `json:"email" bson:"email"`
	Avatar       string `json:"avatar" bson:"avatar"`
	Role         string `json:"role" bson:"role"`
}
