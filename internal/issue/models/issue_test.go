package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
)

func newTestIssue(t *testing.T) *Issue {
	t.Helper()
	issue, err := NewIssue(id.NewIssueID(), id.NewUserID(), "quiet-otter-17", id.RoleStudent,
		"Broken projector", "Projector in LH-3 has a purple tint", "facilities", "Lecture Hall 3", time.Now())
	require.NoError(t, err)
	return issue
}

func TestNewIssueValidation(t *testing.T) {
	now := time.Now()
	authorID := id.NewUserID()

	t.Run("requires title", func(t *testing.T) {
		_, err := NewIssue(id.NewIssueID(), authorID, "n", id.RoleStudent, "  ", "desc", "food", "Mess A", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("requires location", func(t *testing.T) {
		_, err := NewIssue(id.NewIssueID(), authorID, "n", id.RoleStudent, "t", "desc", "food", "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("seeds timeline with pending", func(t *testing.T) {
		issue, err := NewIssue(id.NewIssueID(), authorID, "n", id.RoleStudent, "t", "desc", "food", "Mess A", now)
		require.NoError(t, err)
		require.Len(t, issue.Timeline, 1)
		assert.Equal(t, StatusPending, issue.Timeline[0].Status)
		assert.Equal(t, StatusPending, issue.Status)
	})

	t.Run("admin issues are official", func(t *testing.T) {
		issue, err := NewIssue(id.NewIssueID(), authorID, "Facilities Desk", id.RoleAdmin, "t", "desc", "food", "Mess A", now)
		require.NoError(t, err)
		assert.True(t, issue.IsOfficial)
	})
}

// assertVoteCounts checks the counter invariant: counters always equal the
// tallies of the voted-users map.
func assertVoteCounts(t *testing.T, issue *Issue) {
	t.Helper()
	up, down := 0, 0
	for _, kind := range issue.VotedUsers {
		if kind == VoteUp {
			up++
		} else {
			down++
		}
	}
	assert.Equal(t, up, issue.Upvotes, "upvotes must equal up entries")
	assert.Equal(t, down, issue.Downvotes, "downvotes must equal down entries")
}

func TestApplyVoteToggle(t *testing.T) {
	issue := newTestIssue(t)
	voter := id.NewUserID()
	now := time.Now()

	outcome := issue.ApplyVote(voter, VoteUp, now)
	assert.False(t, outcome.Retracted)
	assert.Equal(t, 1, issue.Upvotes)
	assertVoteCounts(t, issue)

	// Same direction again retracts and returns to baseline.
	outcome = issue.ApplyVote(voter, VoteUp, now)
	assert.True(t, outcome.Retracted)
	assert.Equal(t, 0, issue.Upvotes)
	assert.NotContains(t, issue.VotedUsers, voter)
	assertVoteCounts(t, issue)
}

func TestApplyVoteFlip(t *testing.T) {
	issue := newTestIssue(t)
	voter := id.NewUserID()
	now := time.Now()

	issue.ApplyVote(voter, VoteUp, now)
	outcome := issue.ApplyVote(voter, VoteDown, now)

	assert.False(t, outcome.Retracted)
	assert.Equal(t, 0, issue.Upvotes)
	assert.Equal(t, 1, issue.Downvotes)
	assert.Equal(t, VoteDown, issue.VotedUsers[voter])
	assertVoteCounts(t, issue)
}

func TestVoteCountInvariantUnderSequences(t *testing.T) {
	issue := newTestIssue(t)
	now := time.Now()
	voters := []id.UserID{id.NewUserID(), id.NewUserID(), id.NewUserID()}

	sequence := []struct {
		voter int
		kind  VoteKind
	}{
		{0, VoteUp}, {1, VoteUp}, {2, VoteDown},
		{0, VoteDown}, {1, VoteUp}, {2, VoteDown},
		{0, VoteDown}, {2, VoteUp},
	}
	for _, step := range sequence {
		issue.ApplyVote(voters[step.voter], step.kind, now)
		assertVoteCounts(t, issue)
	}

	// No voter ever holds two votes.
	assert.LessOrEqual(t, len(issue.VotedUsers), len(voters))
}

func TestClaimMilestone(t *testing.T) {
	issue := newTestIssue(t)
	now := time.Now()

	// Push net votes to 9, then cross 10.
	for i := 0; i < 9; i++ {
		issue.ApplyVote(id.NewUserID(), VoteUp, now)
	}
	crosser := id.NewUserID()
	outcome := issue.ApplyVote(crosser, VoteUp, now)
	assert.Equal(t, 10, issue.ClaimMilestone(outcome))

	// Retract and re-cross: must not fire again.
	outcome = issue.ApplyVote(crosser, VoteUp, now)
	assert.Equal(t, 0, issue.ClaimMilestone(outcome))
	outcome = issue.ApplyVote(crosser, VoteUp, now)
	assert.Equal(t, 0, issue.ClaimMilestone(outcome))
}

func TestRemoveVote(t *testing.T) {
	issue := newTestIssue(t)
	voter := id.NewUserID()
	now := time.Now()

	issue.ApplyVote(voter, VoteDown, now)
	require.Equal(t, 1, issue.Downvotes)

	assert.True(t, issue.RemoveVote(voter, now))
	assert.Equal(t, 0, issue.Downvotes)
	assert.False(t, issue.RemoveVote(voter, now), "second removal is a no-op")
	assertVoteCounts(t, issue)
}

func TestStatusTransitionRules(t *testing.T) {
	t.Run("rejects skipping the graph", func(t *testing.T) {
		issue := newTestIssue(t)
		err := issue.CanTransitionTo(StatusResolved, "skipping straight to resolved")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("requires a note", func(t *testing.T) {
		issue := newTestIssue(t)
		err := issue.CanTransitionTo(StatusUnderReview, "   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("requires a long note entering terminal states", func(t *testing.T) {
		issue := newTestIssue(t)
		issue.Status = StatusUnderReview
		err := issue.CanTransitionTo(StatusRejected, "too short")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		require.NoError(t, issue.CanTransitionTo(StatusRejected, "duplicate of an earlier report"))
	})

	t.Run("valid transition appends exactly one timeline event", func(t *testing.T) {
		issue := newTestIssue(t)
		issue.Status = StatusUnderReview
		now := time.Now()

		require.NoError(t, issue.CanTransitionTo(StatusApproved, "forwarded to maintenance team"))
		issue.ApplyStatus(StatusApproved, "forwarded to maintenance team", "admin-1", "Facilities Desk", now)

		require.Len(t, issue.Timeline, 2)
		assert.Equal(t, StatusApproved, issue.Timeline[1].Status)
		assert.Equal(t, StatusApproved, issue.Status)
		assert.Nil(t, issue.Resolution)
	})

	t.Run("terminal statuses attach a resolution and stay terminal", func(t *testing.T) {
		issue := newTestIssue(t)
		issue.Status = StatusInProgress
		now := time.Now()

		require.NoError(t, issue.CanTransitionTo(StatusResolved, "replaced projector bulb and cable"))
		issue.ApplyStatus(StatusResolved, "replaced projector bulb and cable", "admin-1", "Facilities Desk", now)

		require.NotNil(t, issue.Resolution)
		assert.Equal(t, StatusResolved, issue.Resolution.Status)

		// No transition leaves a terminal state, however good the note.
		for _, target := range []Status{StatusPending, StatusUnderReview, StatusApproved, StatusInProgress, StatusRejected} {
			err := issue.CanTransitionTo(target, "a perfectly valid long note")
			assert.Error(t, err, "resolved must not transition to %s", target)
		}
	})
}

func TestStatusGraph(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusUnderReview))
	assert.False(t, StatusPending.CanTransitionTo(StatusApproved))
	assert.True(t, StatusUnderReview.CanTransitionTo(StatusRejected))
	assert.False(t, StatusApproved.CanTransitionTo(StatusResolved))
	assert.True(t, StatusResolved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, Status("deleted").IsValid())
}
