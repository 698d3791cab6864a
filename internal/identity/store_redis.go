package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
)

const (
	sessionKeyPrefix  = "campusvoice:session:"
	nicknameKeyPrefix = "campusvoice:nickname:"
)

// RedisSessionStore persists sessions in Redis so logins survive restarts.
// Each session gets a TTL matching its expiry; a parallel nickname key backs
// the uniqueness check and expires with the session.
type RedisSessionStore struct {
	client redis.Cmdable
}

func NewRedisSessionStore(client redis.Cmdable) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(userID id.UserID) string {
	return sessionKeyPrefix + userID.String()
}

func nicknameKey(nickname string) string {
	return nicknameKeyPrefix + normalizeNickname(nickname)
}

func (s *RedisSessionStore) Save(ctx context.Context, session Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return sentinel.ErrInvalidState
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.UserID), payload, ttl)
	pipe.Set(ctx, nicknameKey(session.Nickname), session.UserID.String(), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Find(ctx context.Context, userID id.UserID) (*Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		// A corrupted record is treated as absent; the client re-authenticates.
		return nil, sentinel.ErrNotFound
	}
	return &session, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, userID id.UserID) error {
	session, err := s.Find(ctx, userID)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(userID))
	pipe.Del(ctx, nicknameKey(session.Nickname))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) NicknameInUse(ctx context.Context, nickname string, exclude id.UserID) (bool, error) {
	owner, err := s.client.Get(ctx, nicknameKey(nickname)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check nickname: %w", err)
	}
	return owner != exclude.String(), nil
}
