package identity

import (
	"context"
	"sync"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

// InMemorySessionStore keeps sessions in a map. Restarting the process logs
// everyone out; production deployments use the Redis store.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.UserID]Session
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.UserID]Session)}
}

func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.UserID] = session
	return nil
}

func (s *InMemorySessionStore) Find(_ context.Context, userID id.UserID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &session, nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.sessions, userID)
	return nil
}

func (s *InMemorySessionStore) NicknameInUse(_ context.Context, nickname string, exclude id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := normalizeNickname(nickname)
	for userID, session := range s.sessions {
		if userID != exclude && normalizeNickname(session.Nickname) == key {
			return true, nil
		}
	}
	return false, nil
}
