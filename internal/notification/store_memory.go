package notification

import (
	"context"
	"sync"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// InMemoryStore keeps notifications per recipient, newest first on list.
type InMemoryStore struct {
	mu     sync.RWMutex
	byUser map[id.UserID][]Notification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byUser: make(map[id.UserID][]Notification)}
}

func (s *InMemoryStore) Append(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[n.UserID] = append(s.byUser[n.UserID], n)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.byUser[userID]
	out := make([]Notification, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, notificationID id.NotificationID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.byUser[userID]
	for i := range stored {
		if stored[i].ID == notificationID {
			stored[i].IsRead = true
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemoryStore) MarkAllRead(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.byUser[userID]
	for i := range stored {
		stored[i].IsRead = true
	}
	return nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byUser, userID)
	return nil
}
