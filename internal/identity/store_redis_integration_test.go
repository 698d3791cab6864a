//go:build integration

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "campusvoice/pkg/domain"
	"campusvoice/pkg/platform/sentinel"
	"campusvoice/pkg/testutil/containers"
)

type RedisSessionStoreSuite struct {
	suite.Suite
	store *RedisSessionStore
	rc    *containers.RedisContainer
	ctx   context.Context
}

func TestRedisSessionStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSessionStoreSuite))
}

func (s *RedisSessionStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.rc = containers.NewRedisContainer(s.T())
	s.store = NewRedisSessionStore(s.rc.Client)
}

func (s *RedisSessionStoreSuite) SetupTest() {
	s.Require().NoError(s.rc.Client.FlushAll(s.ctx).Err())
}

func (s *RedisSessionStoreSuite) newSession(nickname string) Session {
	now := time.Now().UTC()
	return Session{
		UserID:    id.NewUserID(),
		Nickname:  nickname,
		Role:      id.RoleStudent,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func (s *RedisSessionStoreSuite) TestSaveAndFind() {
	session := s.newSession("calm-otter-7")
	s.Require().NoError(s.store.Save(s.ctx, session))

	found, err := s.store.Find(s.ctx, session.UserID)
	s.Require().NoError(err)
	s.Equal("calm-otter-7", found.Nickname)
	s.Equal(id.RoleStudent, found.Role)
}

func (s *RedisSessionStoreSuite) TestFindMissing() {
	_, err := s.store.Find(s.ctx, id.NewUserID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestCorruptedRecordReadsAsMissing() {
	userID := id.NewUserID()
	s.Require().NoError(s.rc.Client.Set(s.ctx, sessionKey(userID), "{not json", time.Hour).Err())

	_, err := s.store.Find(s.ctx, userID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisSessionStoreSuite) TestDeleteReleasesNickname() {
	session := s.newSession("calm-otter-7")
	s.Require().NoError(s.store.Save(s.ctx, session))

	inUse, err := s.store.NicknameInUse(s.ctx, "CALM-otter-7", id.NewUserID())
	s.Require().NoError(err)
	s.True(inUse)

	s.Require().NoError(s.store.Delete(s.ctx, session.UserID))

	inUse, err = s.store.NicknameInUse(s.ctx, "calm-otter-7", id.NewUserID())
	s.Require().NoError(err)
	s.False(inUse)
}

func (s *RedisSessionStoreSuite) TestNicknameExcludesSelf() {
	session := s.newSession("quiet-heron-3")
	s.Require().NoError(s.store.Save(s.ctx, session))

	inUse, err := s.store.NicknameInUse(s.ctx, "quiet-heron-3", session.UserID)
	s.Require().NoError(err)
	s.False(inUse)
}

func (s *RedisSessionStoreSuite) TestRejectsExpiredSession() {
	session := s.newSession("late-walrus-1")
	session.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	s.Require().ErrorIs(s.store.Save(s.ctx, session), sentinel.ErrInvalidState)
}
