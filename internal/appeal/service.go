package appeal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"campusvoice/internal/notification"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/sentinel"
	"campusvoice/pkg/requestcontext"
)

// Accounts is the slice of the identity service appeals act on.
type Accounts interface {
	Unsuspend(ctx context.Context, userID id.UserID) error
}

// Notifier delivers user notifications.
type Notifier interface {
	Emit(ctx context.Context, n notification.Notification) error
}

type Service struct {
	store    Store
	accounts Accounts
	notifier Notifier
	logger   *slog.Logger
}

func NewService(store Store, accounts Accounts, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, accounts: accounts, notifier: notifier, logger: logger}
}

// Submit files an appeal. A user may hold at most one pending appeal.
func (s *Service) Submit(ctx context.Context, userID id.UserID, nickname, email, reason string) (*Appeal, error) {
	pending, err := s.store.HasPendingForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check pending appeals: %w", err)
	}
	if pending {
		return nil, dErrors.New(dErrors.CodeConflict, "an appeal is already pending for this account")
	}

	a, err := NewAppeal(id.NewAppealID(), userID, nickname, email, reason, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create appeal: %w", err)
	}

	s.logger.InfoContext(ctx, "appeal submitted",
		slog.String("appeal_id", a.ID.String()),
		slog.String("user_id", userID.String()))
	return a, nil
}

// List returns all appeals for the admin review queue, newest first.
func (s *Service) List(ctx context.Context) ([]*Appeal, error) {
	appeals, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	return appeals, nil
}

// Approve grants the appeal and reinstates the account.
func (s *Service) Approve(ctx context.Context, appealID id.AppealID, reviewer string) (*Appeal, error) {
	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, appealID,
		requirePending,
		func(a *Appeal) {
			a.Status = StatusApproved
			a.ReviewedBy = reviewer
			a.ReviewedAt = now
		},
	)
	if err != nil {
		return nil, s.translateLookup(err)
	}

	if err := s.accounts.Unsuspend(ctx, a.UserID); err != nil {
		// The appeal record stands either way; suspension state is logged for
		// manual follow-up.
		s.logger.ErrorContext(ctx, "failed to unsuspend after approval",
			slog.String("appeal_id", a.ID.String()),
			slog.String("error", err.Error()))
	}

	s.emit(ctx, notification.Notification{
		UserID:  a.UserID,
		Type:    notification.TypeAppealDecision,
		Title:   "Your appeal was approved",
		Message: "Your account has been reinstated.",
	})
	return a, nil
}

// Reject denies the appeal. A rejection reason is mandatory.
func (s *Service) Reject(ctx context.Context, appealID id.AppealID, reviewer, rejectionReason string) (*Appeal, error) {
	rejectionReason = strings.TrimSpace(rejectionReason)
	if rejectionReason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
	}

	now := requestcontext.Now(ctx)
	a, err := s.store.Execute(ctx, appealID,
		requirePending,
		func(a *Appeal) {
			a.Status = StatusRejected
			a.RejectionReason = rejectionReason
			a.ReviewedBy = reviewer
			a.ReviewedAt = now
		},
	)
	if err != nil {
		return nil, s.translateLookup(err)
	}

	s.emit(ctx, notification.Notification{
		UserID:  a.UserID,
		Type:    notification.TypeAppealDecision,
		Title:   "Your appeal was rejected",
		Message: rejectionReason,
	})
	return a, nil
}

func requirePending(a *Appeal) error {
	if a.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "appeal has already been reviewed")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, n notification.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, n); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit notification",
			slog.String("type", string(n.Type)),
			slog.String("error", err.Error()))
	}
}

func (s *Service) translateLookup(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "appeal not found")
	}
	return err
}
