package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"campusvoice/internal/issue/models"
	"campusvoice/internal/issue/moderation"
	"campusvoice/internal/issue/service/mocks"
	"campusvoice/internal/issue/store"
	"campusvoice/internal/notification"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/requestcontext"
)

type fixture struct {
	service  *Service
	store    *store.InMemory
	notifier *mocks.MockNotifier
	ctx      context.Context
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	st := store.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(st, notifier, moderation.NewEngine(3, 10), nil, logger)

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return &fixture{
		service:  svc,
		store:    st,
		notifier: notifier,
		ctx:      requestcontext.WithTime(context.Background(), now),
		now:      now,
	}
}

func (f *fixture) createIssue(t *testing.T, authorID id.UserID) *models.Issue {
	t.Helper()
	issue, err := f.service.Create(f.ctx, CreateIssue{
		Title:          "Broken projector in LH-3",
		Description:    "The projector flickers and dies after five minutes.",
		Category:       "academic",
		Location:       "Lecture Hall 3",
		AuthorID:       authorID,
		AuthorNickname: "calm-otter-7",
		AuthorRole:     id.RoleStudent,
	})
	require.NoError(t, err)
	return issue
}

func TestCreate(t *testing.T) {
	t.Run("seeds a pending issue with timeline", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())

		assert.Equal(t, models.StatusPending, issue.Status)
		require.Len(t, issue.Timeline, 1)
		assert.Equal(t, models.StatusPending, issue.Timeline[0].Status)
		assert.False(t, issue.IsOfficial)
	})

	t.Run("admin issues are official", func(t *testing.T) {
		f := newFixture(t)
		issue, err := f.service.Create(f.ctx, CreateIssue{
			Title:          "Planned maintenance",
			Description:    "Water will be off on Saturday morning.",
			Category:       "facilities",
			Location:       "Campus-wide",
			AuthorID:       id.NewUserID(),
			AuthorNickname: "Facilities Team",
			AuthorRole:     id.RoleAdmin,
		})
		require.NoError(t, err)
		assert.True(t, issue.IsOfficial)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Create(f.ctx, CreateIssue{
			Description: "no title",
			Category:    "facilities",
			Location:    "somewhere",
			AuthorID:    id.NewUserID(),
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestVote(t *testing.T) {
	t.Run("casts and toggles", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())
		voter := id.NewUserID()

		updated, err := f.service.Vote(f.ctx, issue.ID, voter, models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Upvotes)

		updated, err = f.service.Vote(f.ctx, issue.ID, voter, models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, 0, updated.Upvotes)
		assert.Empty(t, updated.VotedUsers)
	})

	t.Run("rejects voting on a removed issue", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())
		_, err := f.store.Execute(f.ctx, issue.ID, nil, func(i *models.Issue) { i.IsDeleted = true })
		require.NoError(t, err)

		_, err = f.service.Vote(f.ctx, issue.ID, id.NewUserID(), models.VoteUp)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("unknown issue is not found", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Vote(f.ctx, id.NewIssueID(), id.NewUserID(), models.VoteUp)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestVoteMilestones(t *testing.T) {
	t.Run("crossing ten net votes notifies the author once", func(t *testing.T) {
		f := newFixture(t)
		author := id.NewUserID()
		issue := f.createIssue(t, author)

		f.notifier.EXPECT().
			Emit(gomock.Any(), gomock.Cond(func(n notification.Notification) bool {
				return n.UserID == author && n.Type == notification.TypeVoteMilestone
			})).
			Return(nil).
			Times(1)

		for range 10 {
			_, err := f.service.Vote(f.ctx, issue.ID, id.NewUserID(), models.VoteUp)
			require.NoError(t, err)
		}

		// Dip below and re-cross: the milestone must not fire again.
		dissenter := id.NewUserID()
		_, err := f.service.Vote(f.ctx, issue.ID, dissenter, models.VoteDown)
		require.NoError(t, err)
		_, err = f.service.Vote(f.ctx, issue.ID, dissenter, models.VoteDown)
		require.NoError(t, err)
	})

	t.Run("author votes never trigger a milestone", func(t *testing.T) {
		f := newFixture(t)
		author := id.NewUserID()
		issue := f.createIssue(t, author)

		for range 9 {
			_, err := f.service.Vote(f.ctx, issue.ID, id.NewUserID(), models.VoteUp)
			require.NoError(t, err)
		}
		// The author's own vote crosses 10; no Emit expectation is set, so the
		// controller fails the test if one fires.
		_, err := f.service.Vote(f.ctx, issue.ID, author, models.VoteUp)
		require.NoError(t, err)
	})
}

func TestReport(t *testing.T) {
	t.Run("third report flags, duplicate is a no-op", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())
		reporters := []id.UserID{id.NewUserID(), id.NewUserID(), id.NewUserID()}

		for _, r := range reporters[:2] {
			updated, err := f.service.Report(f.ctx, issue.ID, r, "spam", "")
			require.NoError(t, err)
			assert.False(t, updated.IsReported)
		}

		updated, err := f.service.Report(f.ctx, issue.ID, reporters[2], "spam", "")
		require.NoError(t, err)
		assert.True(t, updated.IsReported)
		assert.Equal(t, 3, updated.ReportCount)

		updated, err = f.service.Report(f.ctx, issue.ID, reporters[0], "spam", "")
		require.NoError(t, err)
		assert.Equal(t, 3, updated.ReportCount)
	})

	t.Run("tenth report soft-deletes", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())

		var updated *models.Issue
		var err error
		for range 10 {
			updated, err = f.service.Report(f.ctx, issue.ID, id.NewUserID(), "inappropriate", "")
			require.NoError(t, err)
		}
		assert.True(t, updated.IsDeleted)
	})

	t.Run("rejects empty reason", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())
		_, err := f.service.Report(f.ctx, issue.ID, id.NewUserID(), "  ", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRestoreAndFalselyAccused(t *testing.T) {
	softDelete := func(t *testing.T, f *fixture) *models.Issue {
		t.Helper()
		issue := f.createIssue(t, id.NewUserID())
		var updated *models.Issue
		var err error
		for range 10 {
			updated, err = f.service.Report(f.ctx, issue.ID, id.NewUserID(), "spam", "")
			require.NoError(t, err)
		}
		require.True(t, updated.IsDeleted)
		return updated
	}

	t.Run("restore keeps reports and the reported flag", func(t *testing.T) {
		f := newFixture(t)
		deleted := softDelete(t, f)

		restored, err := f.service.Restore(f.ctx, deleted.ID)
		require.NoError(t, err)
		assert.False(t, restored.IsDeleted)
		assert.True(t, restored.IsReported)
		assert.Equal(t, 10, restored.ReportCount)
		assert.Equal(t, models.StatusPending, restored.Status)
	})

	t.Run("restore of a live issue is an invariant violation", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())
		_, err := f.service.Restore(f.ctx, issue.ID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("falsely accused clears both flags and sticks", func(t *testing.T) {
		f := newFixture(t)
		deleted := softDelete(t, f)

		cleared, err := f.service.MarkFalselyAccused(f.ctx, deleted.ID)
		require.NoError(t, err)
		assert.True(t, cleared.IsFalselyAccused)
		assert.False(t, cleared.IsDeleted)
		assert.False(t, cleared.IsReported)

		// Further reports accumulate but never re-flag or re-delete.
		again, err := f.service.Report(f.ctx, cleared.ID, id.NewUserID(), "spam", "")
		require.NoError(t, err)
		assert.False(t, again.IsReported)
		assert.False(t, again.IsDeleted)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("walks the workflow and notifies the author", func(t *testing.T) {
		f := newFixture(t)
		author := id.NewUserID()
		issue := f.createIssue(t, author)

		f.notifier.EXPECT().
			Emit(gomock.Any(), gomock.Cond(func(n notification.Notification) bool {
				return n.UserID == author && n.Type == notification.TypeStatusChange
			})).
			Return(nil).
			Times(4)

		steps := []struct {
			status models.Status
			note   string
		}{
			{models.StatusUnderReview, "taking a look"},
			{models.StatusApproved, "confirmed on site"},
			{models.StatusInProgress, "contractor scheduled"},
			{models.StatusResolved, "projector replaced on Monday"},
		}
		for _, step := range steps {
			updated, err := f.service.UpdateStatus(f.ctx, issue.ID, step.status, step.note, "admin-1", "Facilities")
			require.NoError(t, err)
			assert.Equal(t, step.status, updated.Status)
		}

		final, err := f.service.Get(f.ctx, issue.ID, author, id.RoleStudent)
		require.NoError(t, err)
		require.NotNil(t, final.Resolution)
		assert.Equal(t, models.StatusResolved, final.Resolution.Status)
		assert.Len(t, final.Timeline, 5)
	})

	t.Run("rejects skipping review", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())

		_, err := f.service.UpdateStatus(f.ctx, issue.ID, models.StatusApproved, "looks fine", "admin-1", "Facilities")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("terminal statuses need a ten character note", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())

		// The setup transition into review notifies the author once; the
		// rejected short-note transition must not.
		f.notifier.EXPECT().
			Emit(gomock.Any(), gomock.Cond(func(n notification.Notification) bool {
				return n.Type == notification.TypeStatusChange
			})).
			Return(nil)

		_, err := f.service.UpdateStatus(f.ctx, issue.ID, models.StatusUnderReview, "checking", "admin-1", "Facilities")
		require.NoError(t, err)
		_, err = f.service.UpdateStatus(f.ctx, issue.ID, models.StatusRejected, "dup", "admin-1", "Facilities")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestAssignDepartment(t *testing.T) {
	f := newFixture(t)
	author := id.NewUserID()
	issue := f.createIssue(t, author)

	f.notifier.EXPECT().
		Emit(gomock.Any(), gomock.Cond(func(n notification.Notification) bool {
			return n.UserID == author && n.Type == notification.TypeAssignment
		})).
		Return(nil)

	updated, err := f.service.AssignDepartment(f.ctx, issue.ID, "maintenance", "")
	require.NoError(t, err)
	assert.Equal(t, "maintenance", updated.AssignedDepartment)
}

func TestDeleteOwn(t *testing.T) {
	t.Run("author deletes own issue", func(t *testing.T) {
		f := newFixture(t)
		author := id.NewUserID()
		issue := f.createIssue(t, author)

		require.NoError(t, f.service.DeleteOwn(f.ctx, issue.ID, author))
		_, err := f.service.Get(f.ctx, issue.ID, author, id.RoleStudent)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("non-author is forbidden", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())

		err := f.service.DeleteOwn(f.ctx, issue.ID, id.NewUserID())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestList(t *testing.T) {
	t.Run("hot sort prefers fresh issues over stale ones with equal votes", func(t *testing.T) {
		f := newFixture(t)
		fresh := f.createIssue(t, id.NewUserID())
		stale := f.createIssue(t, id.NewUserID())

		_, err := f.store.Execute(f.ctx, stale.ID, nil, func(i *models.Issue) {
			i.CreatedAt = f.now.Add(-10 * time.Hour)
		})
		require.NoError(t, err)

		for _, issueID := range []id.IssueID{fresh.ID, stale.ID} {
			for range 5 {
				_, err := f.service.Vote(f.ctx, issueID, id.NewUserID(), models.VoteUp)
				require.NoError(t, err)
			}
		}

		feed, err := f.service.List(f.ctx, Filter{Sort: SortHot})
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, fresh.ID, feed[0].ID)
	})

	t.Run("soft-deleted issues are hidden from the default feed", func(t *testing.T) {
		f := newFixture(t)
		visible := f.createIssue(t, id.NewUserID())
		hidden := f.createIssue(t, id.NewUserID())
		_, err := f.store.Execute(f.ctx, hidden.ID, nil, func(i *models.Issue) { i.IsDeleted = true })
		require.NoError(t, err)

		feed, err := f.service.List(f.ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.Equal(t, visible.ID, feed[0].ID)

		deletedView, err := f.service.List(f.ctx, Filter{DeletedOnly: true})
		require.NoError(t, err)
		require.Len(t, deletedView, 1)
		assert.Equal(t, hidden.ID, deletedView[0].ID)
	})

	t.Run("falsely accused issues never appear in moderation views", func(t *testing.T) {
		f := newFixture(t)
		issue := f.createIssue(t, id.NewUserID())
		_, err := f.store.Execute(f.ctx, issue.ID, nil, func(i *models.Issue) {
			i.IsReported = true
			i.IsFalselyAccused = true
		})
		require.NoError(t, err)

		reported, err := f.service.List(f.ctx, Filter{ReportedOnly: true})
		require.NoError(t, err)
		assert.Empty(t, reported)

		feed, err := f.service.List(f.ctx, Filter{})
		require.NoError(t, err)
		assert.Len(t, feed, 1)
	})

	t.Run("filters by category and author", func(t *testing.T) {
		f := newFixture(t)
		author := id.NewUserID()
		mine := f.createIssue(t, author)
		f.createIssue(t, id.NewUserID())

		byAuthor, err := f.service.List(f.ctx, Filter{AuthorID: author})
		require.NoError(t, err)
		require.Len(t, byAuthor, 1)
		assert.Equal(t, mine.ID, byAuthor[0].ID)

		none, err := f.service.List(f.ctx, Filter{Category: "hostel"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGetHidesDeletedFromStrangers(t *testing.T) {
	f := newFixture(t)
	author := id.NewUserID()
	issue := f.createIssue(t, author)
	_, err := f.store.Execute(f.ctx, issue.ID, nil, func(i *models.Issue) { i.IsDeleted = true })
	require.NoError(t, err)

	_, err = f.service.Get(f.ctx, issue.ID, id.NewUserID(), id.RoleStudent)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	got, err := f.service.Get(f.ctx, issue.ID, author, id.RoleStudent)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	got, err = f.service.Get(f.ctx, issue.ID, id.NewUserID(), id.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
}
