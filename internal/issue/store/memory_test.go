package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusvoice/internal/issue/models"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/sentinel"
)

type IssueStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *IssueStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestIssueStoreSuite(t *testing.T) {
	suite.Run(t, new(IssueStoreSuite))
}

func (s *IssueStoreSuite) newIssue(authorID id.UserID, title string) *models.Issue {
	issue, err := models.NewIssue(id.NewIssueID(), authorID, "bold-finch-2", id.RoleStudent,
		title, "description", "facilities", "Block A", time.Now())
	s.Require().NoError(err)
	return issue
}

func (s *IssueStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds issue by ID", func() {
		issue := s.newIssue(id.NewUserID(), "Flickering lights")
		s.Require().NoError(s.store.Create(s.ctx, issue))

		found, err := s.store.FindByID(s.ctx, issue.ID)
		s.Require().NoError(err)
		s.Equal(issue.Title, found.Title)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.NewIssueID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects duplicate IDs", func() {
		issue := s.newIssue(id.NewUserID(), "Duplicate")
		s.Require().NoError(s.store.Create(s.ctx, issue))
		s.Require().ErrorIs(s.store.Create(s.ctx, issue), sentinel.ErrConflict)
	})
}

func (s *IssueStoreSuite) TestReadsAreIsolated() {
	issue := s.newIssue(id.NewUserID(), "Isolation")
	s.Require().NoError(s.store.Create(s.ctx, issue))

	found, err := s.store.FindByID(s.ctx, issue.ID)
	s.Require().NoError(err)
	found.Title = "mutated copy"
	found.VotedUsers[id.NewUserID()] = models.VoteUp

	again, err := s.store.FindByID(s.ctx, issue.ID)
	s.Require().NoError(err)
	s.Equal("Isolation", again.Title)
	s.Empty(again.VotedUsers)
}

func (s *IssueStoreSuite) TestExecute() {
	s.Run("applies validated mutations atomically", func() {
		issue := s.newIssue(id.NewUserID(), "Execute")
		s.Require().NoError(s.store.Create(s.ctx, issue))
		voter := id.NewUserID()

		updated, err := s.store.Execute(s.ctx, issue.ID,
			func(i *models.Issue) error { return nil },
			func(i *models.Issue) { i.ApplyVote(voter, models.VoteUp, time.Now()) },
		)
		s.Require().NoError(err)
		s.Equal(1, updated.Upvotes)

		stored, _ := s.store.FindByID(s.ctx, issue.ID)
		s.Equal(1, stored.Upvotes)
	})

	s.Run("validation failure leaves state untouched", func() {
		issue := s.newIssue(id.NewUserID(), "Execute invalid")
		s.Require().NoError(s.store.Create(s.ctx, issue))

		_, err := s.store.Execute(s.ctx, issue.ID,
			func(i *models.Issue) error {
				return dErrors.New(dErrors.CodeInvariantViolation, "nope")
			},
			func(i *models.Issue) { i.Upvotes = 99 },
		)
		s.Require().Error(err)

		stored, _ := s.store.FindByID(s.ctx, issue.ID)
		s.Equal(0, stored.Upvotes)
	})

	s.Run("unknown issue returns ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, id.NewIssueID(), nil, func(i *models.Issue) {})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *IssueStoreSuite) TestCascadeHelpers() {
	author := id.NewUserID()
	voter := id.NewUserID()

	mine := s.newIssue(author, "Mine")
	other := s.newIssue(id.NewUserID(), "Someone else's")
	other.ApplyVote(voter, models.VoteUp, time.Now())
	s.Require().NoError(s.store.Create(s.ctx, mine))
	s.Require().NoError(s.store.Create(s.ctx, other))

	removedIssues, err := s.store.DeleteByAuthor(s.ctx, author)
	s.Require().NoError(err)
	s.Equal(1, removedIssues)
	_, err = s.store.FindByID(s.ctx, mine.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	removedVotes, err := s.store.RemoveVotesBy(s.ctx, voter)
	s.Require().NoError(err)
	s.Equal(1, removedVotes)
	stored, _ := s.store.FindByID(s.ctx, other.ID)
	s.Equal(0, stored.Upvotes)
}

func (s *IssueStoreSuite) TestAdjustCommentCount() {
	issue := s.newIssue(id.NewUserID(), "Comments")
	s.Require().NoError(s.store.Create(s.ctx, issue))

	s.Require().NoError(s.store.AdjustCommentCount(s.ctx, issue.ID, 1))
	s.Require().NoError(s.store.AdjustCommentCount(s.ctx, issue.ID, 1))
	s.Require().NoError(s.store.AdjustCommentCount(s.ctx, issue.ID, -3))

	stored, _ := s.store.FindByID(s.ctx, issue.ID)
	s.Equal(0, stored.CommentCount, "count floors at zero")
}
