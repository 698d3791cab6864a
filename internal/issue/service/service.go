// Package service implements the issue use cases: submission, feeds, voting,
// community moderation, and the admin triage workflow. Domain rules live on
// the models; this layer sequences them against the store's Execute callback
// and emits the resulting notifications.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"campusvoice/internal/issue/metrics"
	"campusvoice/internal/issue/models"
	"campusvoice/internal/issue/moderation"
	"campusvoice/internal/issue/ranking"
	"campusvoice/internal/notification"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/sentinel"
	"campusvoice/pkg/requestcontext"
)

// Store is the issue persistence the service depends on.
type Store interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, issueID id.IssueID) (*models.Issue, error)
	List(ctx context.Context) ([]*models.Issue, error)
	Execute(ctx context.Context, issueID id.IssueID, validate func(*models.Issue) error, mutate func(*models.Issue)) (*models.Issue, error)
	Delete(ctx context.Context, issueID id.IssueID) error
}

// Notifier delivers user notifications. Delivery failures are logged, never
// surfaced to the caller: a vote must not fail because an alert did.
type Notifier interface {
	Emit(ctx context.Context, n notification.Notification) error
}

type Service struct {
	store      Store
	notifier   Notifier
	moderation moderation.Engine
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

func New(store Store, notifier Notifier, engine moderation.Engine, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:      store,
		notifier:   notifier,
		moderation: engine,
		metrics:    m,
		logger:     logger,
		tracer:     otel.Tracer("campusvoice/issue"),
	}
}

// CreateIssue is the validated input for Create.
type CreateIssue struct {
	Title       string
	Description string
	Category    string
	Location    string
	MediaURLs   []string
	MediaTypes  []string
	IsUrgent    bool

	AuthorID       id.UserID
	AuthorNickname string
	AuthorRole     id.Role
}

// Create submits a new issue in pending status. Issues created by admins are
// marked official.
func (s *Service) Create(ctx context.Context, req CreateIssue) (*models.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "issue.Create")
	defer span.End()

	issue, err := models.NewIssue(id.NewIssueID(), req.AuthorID, req.AuthorNickname, req.AuthorRole,
		req.Title, req.Description, req.Category, req.Location, requestcontext.Now(ctx))
	if err != nil {
		return nil, s.fail(span, err)
	}
	issue.MediaURLs = req.MediaURLs
	issue.MediaTypes = req.MediaTypes
	if req.AuthorRole == id.RoleAdmin {
		issue.IsUrgent = req.IsUrgent
	}

	if err := s.store.Create(ctx, issue); err != nil {
		return nil, s.fail(span, fmt.Errorf("create issue: %w", err))
	}

	s.metrics.IncrementCreated()
	span.SetAttributes(attribute.String("issue.id", issue.ID.String()))
	s.logger.InfoContext(ctx, "issue created",
		slog.String("issue_id", issue.ID.String()),
		slog.String("category", issue.Category))
	return issue, nil
}

// Get returns one issue. Soft-deleted issues stay visible to admins and to
// their author; everyone else gets not-found.
func (s *Service) Get(ctx context.Context, issueID id.IssueID, viewerID id.UserID, viewerRole id.Role) (*models.Issue, error) {
	issue, err := s.store.FindByID(ctx, issueID)
	if err != nil {
		return nil, s.translateLookup(err)
	}
	if issue.IsDeleted && viewerRole != id.RoleAdmin && issue.AuthorID != viewerID {
		return nil, dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	return issue, nil
}

// Sort names a feed ordering.
type Sort string

const (
	SortHot Sort = "hot"
	SortNew Sort = "new"
)

// Filter narrows and orders the issue feed.
type Filter struct {
	Category string
	Status   models.Status
	AuthorID id.UserID
	// ReportedOnly and DeletedOnly are the admin moderation views; issues
	// marked falsely accused never appear in either.
	ReportedOnly bool
	DeletedOnly  bool
	// IncludeDeleted keeps soft-deleted issues in a normal feed (admin only;
	// the handler enforces the role).
	IncludeDeleted bool
	Sort           Sort
}

// List returns the filtered, ordered feed.
func (s *Service) List(ctx context.Context, filter Filter) ([]*models.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "issue.List")
	defer span.End()

	all, err := s.store.List(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("list issues: %w", err))
	}

	out := make([]*models.Issue, 0, len(all))
	for _, issue := range all {
		if !matches(issue, filter) {
			continue
		}
		out = append(out, issue)
	}

	now := requestcontext.Now(ctx)
	switch filter.Sort {
	case SortNew:
		ranking.SortNew(out)
	default:
		ranking.SortHot(out, now)
	}
	return out, nil
}

func matches(issue *models.Issue, f Filter) bool {
	switch {
	case f.DeletedOnly:
		if !issue.IsDeleted || issue.IsFalselyAccused {
			return false
		}
	case f.ReportedOnly:
		if !issue.IsReported || issue.IsFalselyAccused {
			return false
		}
	default:
		if issue.IsDeleted && !f.IncludeDeleted {
			return false
		}
	}
	if f.Category != "" && issue.Category != f.Category {
		return false
	}
	if f.Status != "" && issue.Status != f.Status {
		return false
	}
	if !f.AuthorID.IsZero() && issue.AuthorID != f.AuthorID {
		return false
	}
	return true
}

// Vote toggles, flips, or adds the voter's vote. Crossing a net-vote
// milestone upward notifies the author exactly once, and never when the voter
// is the author.
func (s *Service) Vote(ctx context.Context, issueID id.IssueID, voterID id.UserID, kind models.VoteKind) (*models.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "issue.Vote",
		trace.WithAttributes(attribute.String("vote.kind", string(kind))))
	defer span.End()

	var outcome models.VoteOutcome
	var milestone int
	now := requestcontext.Now(ctx)

	issue, err := s.store.Execute(ctx, issueID,
		func(i *models.Issue) error {
			if i.IsDeleted {
				return dErrors.New(dErrors.CodeInvariantViolation, "cannot vote on a removed issue")
			}
			return nil
		},
		func(i *models.Issue) {
			outcome = i.ApplyVote(voterID, kind, now)
			if voterID != i.AuthorID {
				milestone = i.ClaimMilestone(outcome)
			}
		},
	)
	if err != nil {
		return nil, s.fail(span, s.translateLookup(err))
	}

	effect := "cast"
	if outcome.Retracted {
		effect = "retracted"
	}
	s.metrics.IncrementVote(string(kind), effect)

	if milestone > 0 {
		s.emit(ctx, notification.Notification{
			UserID:  issue.AuthorID,
			Type:    notification.TypeVoteMilestone,
			Title:   "Your issue is gaining support",
			Message: fmt.Sprintf("%q reached %d net votes", issue.Title, milestone),
			IssueID: issue.ID,
		})
	}
	return issue, nil
}

// Report files a moderation report. A duplicate report from the same user is
// a silent no-op. Crossing the reported threshold flags the issue; crossing
// the delete threshold soft-deletes it.
func (s *Service) Report(ctx context.Context, issueID id.IssueID, reporterID id.UserID, reason, customReason string) (*models.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "issue.Report")
	defer span.End()

	if strings.TrimSpace(reason) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a report reason is required")
	}

	var added, wasDeleted bool
	now := requestcontext.Now(ctx)
	issue, err := s.store.Execute(ctx, issueID, nil,
		func(i *models.Issue) {
			wasDeleted = i.IsDeleted
			added = s.moderation.AddReport(i, reporterID, reason, customReason, now)
		},
	)
	if err != nil {
		return nil, s.fail(span, s.translateLookup(err))
	}

	if added {
		s.metrics.IncrementReport()
	}
	if issue.IsDeleted && !wasDeleted {
		s.metrics.IncrementDeleted("reports")
		s.logger.WarnContext(ctx, "issue auto-removed by reports",
			slog.String("issue_id", issue.ID.String()),
			slog.Int("report_count", issue.ReportCount))
	}
	return issue, nil
}

// Restore clears the soft-delete flag and returns the issue to pending.
// Reports and the reported flag survive the restore.
func (s *Service) Restore(ctx context.Context, issueID id.IssueID) (*models.Issue, error) {
	now := requestcontext.Now(ctx)
	issue, err := s.store.Execute(ctx, issueID,
		func(i *models.Issue) error {
			if !i.IsDeleted {
				return dErrors.New(dErrors.CodeInvariantViolation, "issue is not removed")
			}
			return nil
		},
		func(i *models.Issue) { moderation.Restore(i, now) },
	)
	if err != nil {
		return nil, s.translateLookup(err)
	}
	s.logger.InfoContext(ctx, "issue restored", slog.String("issue_id", issue.ID.String()))
	return issue, nil
}

// MarkFalselyAccused restores the issue and excludes it from the reported and
// deleted moderation views regardless of its report count.
func (s *Service) MarkFalselyAccused(ctx context.Context, issueID id.IssueID) (*models.Issue, error) {
	now := requestcontext.Now(ctx)
	issue, err := s.store.Execute(ctx, issueID, nil,
		func(i *models.Issue) { moderation.MarkFalselyAccused(i, now) },
	)
	if err != nil {
		return nil, s.translateLookup(err)
	}
	s.logger.InfoContext(ctx, "issue marked falsely accused", slog.String("issue_id", issue.ID.String()))
	return issue, nil
}

// UpdateStatus moves the issue through the triage workflow and notifies the
// author. Terminal statuses attach an immutable resolution.
func (s *Service) UpdateStatus(ctx context.Context, issueID id.IssueID, newStatus models.Status, note, adminID, adminName string) (*models.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "issue.UpdateStatus",
		trace.WithAttributes(attribute.String("status.target", string(newStatus))))
	defer span.End()

	now := requestcontext.Now(ctx)
	issue, err := s.store.Execute(ctx, issueID,
		func(i *models.Issue) error { return i.CanTransitionTo(newStatus, note) },
		func(i *models.Issue) { i.ApplyStatus(newStatus, note, adminID, adminName, now) },
	)
	if err != nil {
		return nil, s.fail(span, s.translateLookup(err))
	}

	s.metrics.IncrementStatusChange(string(newStatus))
	s.emit(ctx, notification.Notification{
		UserID:  issue.AuthorID,
		Type:    notification.TypeStatusChange,
		Title:   "Your issue was updated",
		Message: fmt.Sprintf("%q is now %s: %s", issue.Title, newStatus, note),
		IssueID: issue.ID,
	})
	return issue, nil
}

// AssignDepartment records which department owns the issue and notifies the
// author. An "other" assignment carries the free-text department name.
func (s *Service) AssignDepartment(ctx context.Context, issueID id.IssueID, department, customDepartment string) (*models.Issue, error) {
	if strings.TrimSpace(department) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "department is required")
	}
	now := requestcontext.Now(ctx)
	issue, err := s.store.Execute(ctx, issueID, nil,
		func(i *models.Issue) {
			i.AssignedDepartment = department
			i.CustomDepartment = customDepartment
			i.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.translateLookup(err)
	}

	label := department
	if customDepartment != "" {
		label = customDepartment
	}
	s.emit(ctx, notification.Notification{
		UserID:  issue.AuthorID,
		Type:    notification.TypeAssignment,
		Title:   "Your issue was assigned",
		Message: fmt.Sprintf("%q was assigned to %s", issue.Title, label),
		IssueID: issue.ID,
	})
	return issue, nil
}

// SetPriority records the admin-assigned priority bucket.
func (s *Service) SetPriority(ctx context.Context, issueID id.IssueID, priority models.Priority) (*models.Issue, error) {
	now := requestcontext.Now(ctx)
	issue, err := s.store.Execute(ctx, issueID, nil,
		func(i *models.Issue) {
			i.Priority = priority
			i.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.translateLookup(err)
	}
	return issue, nil
}

// SetUrgent toggles the urgent flag.
func (s *Service) SetUrgent(ctx context.Context, issueID id.IssueID, urgent bool) (*models.Issue, error) {
	now := requestcontext.Now(ctx)
	issue, err := s.store.Execute(ctx, issueID, nil,
		func(i *models.Issue) {
			i.IsUrgent = urgent
			i.UpdatedAt = now
		},
	)
	if err != nil {
		return nil, s.translateLookup(err)
	}
	return issue, nil
}

// DeleteOwn hard-deletes the caller's own issue.
func (s *Service) DeleteOwn(ctx context.Context, issueID id.IssueID, userID id.UserID) error {
	issue, err := s.store.FindByID(ctx, issueID)
	if err != nil {
		return s.translateLookup(err)
	}
	if issue.AuthorID != userID {
		return dErrors.New(dErrors.CodeForbidden, "only the author can delete this issue")
	}
	if err := s.store.Delete(ctx, issueID); err != nil {
		return s.translateLookup(err)
	}
	s.metrics.IncrementDeleted("author")
	return nil
}

// emit hands a notification to the notifier, logging failures instead of
// propagating them.
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
		return dErrors.New(dErrors.CodeNotFound, "issue not found")
	}
	return err
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
