// Package store persists issue aggregates. The in-memory implementation
// backs tests and single-node dev runs; the postgres implementation is the
// production store. Both expose the same Execute callback so services can run
// validate-then-mutate atomically.
package store

import (
	"context"
	"sort"
	"sync"

	"campusvoice/internal/issue/models"
	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded issue store. Reads hand out deep copies so
// callers can never mutate shared state outside Execute.
type InMemory struct {
	mu     sync.RWMutex
	issues map[id.IssueID]*models.Issue
}

func NewInMemory() *InMemory {
	return &InMemory{issues: make(map[id.IssueID]*models.Issue)}
}

func (s *InMemory) Create(_ context.Context, issue *models.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.issues[issue.ID]; exists {
		return sentinel.ErrConflict
	}
	s.issues[issue.ID] = clone(issue)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, issueID id.IssueID) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issues[issueID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(issue), nil
}

// List returns all issues ordered by creation time, oldest first. Filtering
// and feed ordering happen in the service.
func (s *InMemory) List(_ context.Context) ([]*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		out = append(out, clone(issue))
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

// Execute atomically runs validate then mutate on the stored issue, holding
// the lock for the whole sequence. The mutated copy is returned.
func (s *InMemory) Execute(_ context.Context, issueID id.IssueID, validate func(*models.Issue) error, mutate func(*models.Issue)) (*models.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[issueID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(issue); err != nil {
			return nil, err
		}
	}
	mutate(issue)
	return clone(issue), nil
}

func (s *InMemory) Delete(_ context.Context, issueID id.IssueID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issues[issueID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.issues, issueID)
	return nil
}

// DeleteByAuthor removes every issue authored by userID, returning how many
// were removed. Part of the logout cascade.
func (s *InMemory) DeleteByAuthor(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for issueID, issue := range s.issues {
		if issue.AuthorID == userID {
			delete(s.issues, issueID)
			removed++
		}
	}
	return removed, nil
}

// RemoveVotesBy drops userID's vote from every issue, decrementing the
// matching counters. Part of the logout cascade.
func (s *InMemory) RemoveVotesBy(_ context.Context, userID id.UserID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, issue := range s.issues {
		if issue.RemoveVote(userID, issue.UpdatedAt) {
			removed++
		}
	}
	return removed, nil
}

// AdjustCommentCount shifts an issue's comment counter by delta, floored at
// zero. Used by the comment service and its cascade.
func (s *InMemory) AdjustCommentCount(_ context.Context, issueID id.IssueID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[issueID]
	if !ok {
		return sentinel.ErrNotFound
	}
	issue.CommentCount += delta
	if issue.CommentCount < 0 {
		issue.CommentCount = 0
	}
	return nil
}

// clone deep-copies an issue so store internals never leak.
func clone(issue *models.Issue) *models.Issue {
	copied := *issue
	copied.VotedUsers = make(map[id.UserID]models.VoteKind, len(issue.VotedUsers))
	for userID, kind := range issue.VotedUsers {
		copied.VotedUsers[userID] = kind
	}
	copied.MediaURLs = append([]string(nil), issue.MediaURLs...)
	copied.MediaTypes = append([]string(nil), issue.MediaTypes...)
	copied.Timeline = append([]models.TimelineEvent(nil), issue.Timeline...)
	copied.Reports = append([]models.Report(nil), issue.Reports...)
	copied.NotifiedMilestones = append([]int(nil), issue.NotifiedMilestones...)
	if issue.Resolution != nil {
		resolution := *issue.Resolution
		copied.Resolution = &resolution
	}
	return &copied
}
