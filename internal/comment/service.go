package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"campusvoice/internal/issue/models"
	"campusvoice/internal/notification"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/sentinel"
	"campusvoice/pkg/requestcontext"
)

// IssueReader is the slice of the issue store the comment service needs: the
// parent lookup for author notification and the counter adjustment.
type IssueReader interface {
	FindByID(ctx context.Context, issueID id.IssueID) (*models.Issue, error)
	AdjustCommentCount(ctx context.Context, issueID id.IssueID, delta int) error
}

// Notifier delivers user notifications.
type Notifier interface {
	Emit(ctx context.Context, n notification.Notification) error
}

type Service struct {
	store             Store
	issues            IssueReader
	notifier          Notifier
	reportedThreshold int
	logger            *slog.Logger
}

func NewService(store Store, issues IssueReader, notifier Notifier, reportedThreshold int, logger *slog.Logger) *Service {
	if reportedThreshold <= 0 {
		reportedThreshold = 3
	}
	return &Service{
		store:             store,
		issues:            issues,
		notifier:          notifier,
		reportedThreshold: reportedThreshold,
		logger:            logger,
	}
}

// CreateComment is the validated input for Add.
type CreateComment struct {
	IssueID   id.IssueID
	Content   string
	MediaURL  string
	MediaType string

	AuthorID       id.UserID
	AuthorNickname string
	AuthorRole     id.Role
}

// Add posts a comment under an issue, bumps the issue's comment counter, and
// notifies the issue author unless they are commenting on their own issue.
func (s *Service) Add(ctx context.Context, req CreateComment) (*Comment, error) {
	issue, err := s.issues.FindByID(ctx, req.IssueID)
	if err != nil {
		return nil, s.translateIssueLookup(err)
	}
	if issue.IsDeleted {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "cannot comment on a removed issue")
	}

	c, err := NewComment(id.NewCommentID(), req.IssueID, req.AuthorID, req.AuthorNickname, req.AuthorRole,
		req.Content, req.MediaURL, req.MediaType, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if err := s.issues.AdjustCommentCount(ctx, req.IssueID, 1); err != nil {
		s.logger.ErrorContext(ctx, "failed to bump comment count",
			slog.String("issue_id", req.IssueID.String()),
			slog.String("error", err.Error()))
	}

	if issue.AuthorID != req.AuthorID {
		s.emit(ctx, notification.Notification{
			UserID:  issue.AuthorID,
			Type:    notification.TypeComment,
			Title:   "New comment on your issue",
			Message: fmt.Sprintf("%s commented on %q", c.AuthorNickname, issue.Title),
			IssueID: issue.ID,
		})
	}
	return c, nil
}

// ListByIssue returns an issue's comments oldest first.
func (s *Service) ListByIssue(ctx context.Context, issueID id.IssueID) ([]*Comment, error) {
	comments, err := s.store.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// DeleteOwn removes the caller's own comment and decrements the issue
// counter.
func (s *Service) DeleteOwn(ctx context.Context, commentID id.CommentID, userID id.UserID) error {
	c, err := s.store.FindByID(ctx, commentID)
	if err != nil {
		return s.translateLookup(err)
	}
	if c.AuthorID != userID {
		return dErrors.New(dErrors.CodeForbidden, "only the author can delete this comment")
	}
	if err := s.store.Delete(ctx, commentID); err != nil {
		return s.translateLookup(err)
	}
	if err := s.issues.AdjustCommentCount(ctx, c.IssueID, -1); err != nil {
		s.logger.ErrorContext(ctx, "failed to decrement comment count",
			slog.String("issue_id", c.IssueID.String()),
			slog.String("error", err.Error()))
	}
	return nil
}

// Report files a moderation report against a comment. One report per reporter;
// duplicates are silent no-ops. Crossing the threshold flags the comment.
func (s *Service) Report(ctx context.Context, commentID id.CommentID, reporterID id.UserID, reason, customReason string) (*Comment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a report reason is required")
	}

	now := requestcontext.Now(ctx)
	c, err := s.store.Execute(ctx, commentID, nil, func(c *Comment) {
		if c.HasReportFrom(reporterID) {
			return
		}
		c.Reports = append(c.Reports, models.Report{
			ID:           id.NewReportID(),
			ReporterID:   reporterID,
			Reason:       reason,
			CustomReason: customReason,
			CreatedAt:    now,
		})
		c.ReportCount = len(c.Reports)
		c.IsReported = c.ReportCount >= s.reportedThreshold
	})
	if err != nil {
		return nil, s.translateLookup(err)
	}
	return c, nil
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
		return dErrors.New(dErrors.CodeNotFound, "comment not found")
	}
	return err
}

func (s *Service) translateIssueLookup(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	return err
}
