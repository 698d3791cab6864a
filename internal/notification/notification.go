// Package notification delivers per-user alerts for vote milestones, status
// changes, comments, department assignment, and appeal decisions.
package notification

import (
	"context"
	"time"

	id "campusvoice/pkg/domain"
)

// Type classifies a notification for client rendering.
type Type string

const (
	TypeVoteMilestone  Type = "vote_milestone"
	TypeStatusChange   Type = "status_change"
	TypeComment        Type = "comment"
	TypeAssignment     Type = "assignment"
	TypeAppealDecision Type = "appeal_decision"
)

// Notification is one alert owned by its recipient.
type Notification struct {
	ID        id.NotificationID `json:"id"`
	UserID    id.UserID         `json:"user_id"`
	Type      Type              `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	IssueID   id.IssueID        `json:"issue_id,omitempty"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store persists notifications.
type Store interface {
	Append(ctx context.Context, n Notification) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Notification, error)
	MarkRead(ctx context.Context, notificationID id.NotificationID, userID id.UserID) error
	MarkAllRead(ctx context.Context, userID id.UserID) error
	DeleteByUser(ctx context.Context, userID id.UserID) error
}
