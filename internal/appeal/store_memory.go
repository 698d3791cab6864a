package appeal

import (
	"context"
	"sort"
	"sync"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// InMemoryStore keeps appeals in a map.
type InMemoryStore struct {
	mu      sync.RWMutex
	appeals map[id.AppealID]*Appeal
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{appeals: make(map[id.AppealID]*Appeal)}
}

func (s *InMemoryStore) Create(_ context.Context, a *Appeal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.appeals[a.ID]; exists {
		return sentinel.ErrConflict
	}
	copied := *a
	s.appeals[a.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appealID id.AppealID) (*Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appeals[appealID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

// List returns all appeals, newest first.
func (s *InMemoryStore) List(_ context.Context) ([]*Appeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Appeal, 0, len(s.appeals))
	for _, a := range s.appeals {
		copied := *a
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) HasPendingForUser(_ context.Context, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appeals {
		if a.UserID == userID && a.Status == StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) Execute(_ context.Context, appealID id.AppealID, validate func(*Appeal) error, mutate func(*Appeal)) (*Appeal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appeals[appealID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return nil, err
		}
	}
	mutate(a)
	copied := *a
	return &copied, nil
}
