// Package identity manages anonymous sessions: access-code login, nickname
// identity, session persistence, and the logout cascade that erases a
// student's footprint.
package identity

import (
	"context"
	"time"

	id "campusvoice/pkg/domain"
)

// Session is the durable record of one logged-in identity. The user ID is
// minted at login; students carry no other identity than their session.
type Session struct {
	UserID   id.UserID `json:"user_id"`
	Nickname string    `json:"nickname"`
	Role     id.Role   `json:"role"`

	// AdminEmail and AdminName are set for admin sessions only.
	AdminEmail string `json:"admin_email,omitempty"`
	AdminName  string `json:"admin_name,omitempty"`

	Device    string    `json:"device,omitempty"`
	Suspended bool      `json:"suspended"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionStore persists sessions and the nickname reservation that keeps
// display names unique among active sessions.
type SessionStore interface {
	Save(ctx context.Context, s Session) error
	Find(ctx context.Context, userID id.UserID) (*Session, error)
	Delete(ctx context.Context, userID id.UserID) error
	// NicknameInUse reports whether nickname (case-insensitive) belongs to an
	// active session other than exclude.
	NicknameInUse(ctx context.Context, nickname string, exclude id.UserID) (bool, error)
}
