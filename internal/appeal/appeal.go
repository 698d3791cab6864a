// Package appeal handles account appeals: suspended users plead their case,
// admins approve (reinstating the account) or reject with a reason.
package appeal

import (
	"context"
	"strings"
	"time"

	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
)

// Status is the review state of an appeal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Appeal is one plea against a suspension.
type Appeal struct {
	ID       id.AppealID `json:"id"`
	UserID   id.UserID   `json:"user_id"`
	Nickname string      `json:"nickname"`
	Email    string      `json:"email,omitempty"`
	Reason   string      `json:"reason"`

	Status          Status    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	ReviewedBy      string    `json:"reviewed_by,omitempty"`
	ReviewedAt      time.Time `json:"reviewed_at,omitzero"`

	CreatedAt time.Time `json:"created_at"`
}

// NewAppeal validates and constructs a pending appeal.
func NewAppeal(appealID id.AppealID, userID id.UserID, nickname, email, reason string, now time.Time) (*Appeal, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "an appeal reason is required")
	}
	if len(reason) > 2000 {
		return nil, dErrors.New(dErrors.CodeValidation, "appeal reason must be 2000 characters or less")
	}
	return &Appeal{
		ID:        appealID,
		UserID:    userID,
		Nickname:  nickname,
		Email:     strings.TrimSpace(email),
		Reason:    reason,
		Status:    StatusPending,
		CreatedAt: now,
	}, nil
}

// Store persists appeals.
type Store interface {
	Create(ctx context.Context, a *Appeal) error
	FindByID(ctx context.Context, appealID id.AppealID) (*Appeal, error)
	List(ctx context.Context) ([]*Appeal, error)
	HasPendingForUser(ctx context.Context, userID id.UserID) (bool, error)
	Execute(ctx context.Context, appealID id.AppealID, validate func(*Appeal) error, mutate func(*Appeal)) (*Appeal, error)
}
