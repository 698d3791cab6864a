package comment

import (
	"context"
	"sort"
	"sync"

	"campusvoice/internal/issue/models"
	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded comment store for tests and dev runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	comments map[id.CommentID]*Comment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{comments: make(map[id.CommentID]*Comment)}
}

func (s *InMemoryStore) Create(_ context.Context, c *Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.comments[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.comments[c.ID] = cloneComment(c)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, commentID id.CommentID) (*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[commentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneComment(c), nil
}

// ListByIssue returns an issue's comments oldest first.
func (s *InMemoryStore) ListByIssue(_ context.Context, issueID id.IssueID) ([]*Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Comment
	for _, c := range s.comments {
		if c.IssueID == issueID {
			out = append(out, cloneComment(c))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.Before(out[b].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Execute(_ context.Context, commentID id.CommentID, validate func(*Comment) error, mutate func(*Comment)) (*Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(c); err != nil {
			return nil, err
		}
	}
	mutate(c)
	return cloneComment(c), nil
}

func (s *InMemoryStore) Delete(_ context.Context, commentID id.CommentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[commentID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.comments, commentID)
	return nil
}

func (s *InMemoryStore) DeleteByAuthor(_ context.Context, userID id.UserID) (map[id.IssueID]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := make(map[id.IssueID]int)
	for commentID, c := range s.comments {
		if c.AuthorID == userID {
			removed[c.IssueID]++
			delete(s.comments, commentID)
		}
	}
	return removed, nil
}

func (s *InMemoryStore) DeleteByIssue(_ context.Context, issueID id.IssueID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for commentID, c := range s.comments {
		if c.IssueID == issueID {
			delete(s.comments, commentID)
			removed++
		}
	}
	return removed, nil
}

func cloneComment(c *Comment) *Comment {
	copied := *c
	copied.Reports = append([]models.Report(nil), c.Reports...)
	return &copied
}
