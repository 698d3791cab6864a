package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"campusvoice/internal/platform/config"
	"campusvoice/internal/platform/metrics"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/sentinel"
	"campusvoice/pkg/requestcontext"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Generate(userID uuid.UUID, role, nickname string, expiresIn time.Duration) (string, error)
}

// IssueCascade is the slice of the issue store the logout cascade touches.
type IssueCascade interface {
	DeleteByAuthor(ctx context.Context, userID id.UserID) (int, error)
	RemoveVotesBy(ctx context.Context, userID id.UserID) (int, error)
	AdjustCommentCount(ctx context.Context, issueID id.IssueID, delta int) error
}

// CommentCascade removes a user's comments, reporting per-issue counts so the
// issue counters can be decremented.
type CommentCascade interface {
	DeleteByAuthor(ctx context.Context, userID id.UserID) (map[id.IssueID]int, error)
}

// NotificationCascade removes a user's notifications.
type NotificationCascade interface {
	DeleteByUser(ctx context.Context, userID id.UserID) error
}

type Service struct {
	sessions      SessionStore
	tokens        TokenIssuer
	issues        IssueCascade
	comments      CommentCascade
	notifications NotificationCascade

	studentAccessCode string
	adminAccessCode   string
	adminCredentials  []config.AdminCredential
	sessionTTL        time.Duration

	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewService(
	sessions SessionStore,
	tokens TokenIssuer,
	issues IssueCascade,
	comments CommentCascade,
	notifications NotificationCascade,
	cfg config.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		sessions:          sessions,
		tokens:            tokens,
		issues:            issues,
		comments:          comments,
		notifications:     notifications,
		studentAccessCode: cfg.StudentAccessCode,
		adminAccessCode:   cfg.AdminAccessCode,
		adminCredentials:  cfg.AdminCredentials,
		sessionTTL:        cfg.SessionTTL,
		metrics:           m,
		logger:            logger,
	}
}

// LoginRequest carries the credentials for either role.
type LoginRequest struct {
	Role       id.Role
	AccessCode string

	// Nickname is optional for students; one is generated when empty.
	Nickname string

	// Email and Password are required for admins.
	Email    string
	Password string
}

// LoginResult is a fresh session plus its bearer token.
type LoginResult struct {
	Session Session
	Token   string
}

// Login authenticates against the configured access codes and mints a new
// anonymous session. Student identity begins and ends with this session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	switch req.Role {
	case id.RoleStudent:
		return s.loginStudent(ctx, req)
	case id.RoleAdmin:
		return s.loginAdmin(ctx, req)
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "role must be student or admin")
	}
}

func (s *Service) loginStudent(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.AccessCode != s.studentAccessCode {
		s.metrics.IncrementLogin("student", "denied")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid access code")
	}

	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = GenerateNickname()
	}
	nickname, err := ValidateNickname(nickname)
	if err != nil {
		return nil, err
	}

	userID := id.NewUserID()
	inUse, err := s.sessions.NicknameInUse(ctx, nickname, userID)
	if err != nil {
		return nil, fmt.Errorf("check nickname: %w", err)
	}
	if inUse {
		return nil, dErrors.New(dErrors.CodeConflict, "nickname is already in use")
	}

	return s.open(ctx, Session{
		UserID:   userID,
		Nickname: nickname,
		Role:     id.RoleStudent,
	})
}

func (s *Service) loginAdmin(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.AccessCode != s.adminAccessCode {
		s.metrics.IncrementLogin("admin", "denied")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid access code")
	}

	cred, ok := s.lookupAdmin(req.Email)
	if !ok || bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)) != nil {
		s.metrics.IncrementLogin("admin", "denied")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	return s.open(ctx, Session{
		UserID:     id.NewUserID(),
		Nickname:   cred.Name,
		Role:       id.RoleAdmin,
		AdminEmail: cred.Email,
		AdminName:  cred.Name,
	})
}

func (s *Service) lookupAdmin(email string) (config.AdminCredential, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, cred := range s.adminCredentials {
		if strings.ToLower(cred.Email) == email {
			return cred, true
		}
	}
	return config.AdminCredential{}, false
}

func (s *Service) open(ctx context.Context, session Session) (*LoginResult, error) {
	now := requestcontext.Now(ctx)
	session.Device = requestcontext.Device(ctx)
	session.CreatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	token, err := s.tokens.Generate(uuid.UUID(session.UserID), string(session.Role), session.Nickname, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.metrics.IncrementLogin(string(session.Role), "success")
	s.metrics.SessionOpened()
	s.logger.InfoContext(ctx, "session opened",
		slog.String("user_id", session.UserID.String()),
		slog.String("role", string(session.Role)),
		slog.String("device", session.Device))
	return &LoginResult{Session: session, Token: token}, nil
}

// Restore reloads the caller's session on page reload. A missing or corrupted
// record is unauthorized, never fatal; a suspended session is forbidden.
func (s *Service) Restore(ctx context.Context, userID id.UserID) (*Session, error) {
	session, err := s.sessions.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if session.Suspended {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is suspended")
	}
	if requestcontext.Now(ctx).After(session.ExpiresAt) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session has expired")
	}
	return session, nil
}

// CheckSession verifies the bearer's session is still usable. Logout deletes
// the record, so a token whose session is gone is unauthorized; a suspended
// or expired session is rejected the same way Restore rejects it. The auth
// middleware calls this on every authenticated request.
func (s *Service) CheckSession(ctx context.Context, userID id.UserID) error {
	_, err := s.Restore(ctx, userID)
	return err
}

// Logout deletes the session. For students every trace of the identity is
// erased: authored issues, cast votes, comments, and notifications. The four
// branches fan out concurrently; comment-counter decrements run after the
// comment deletions they depend on.
func (s *Service) Logout(ctx context.Context, userID id.UserID) error {
	session, err := s.sessions.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeUnauthorized, "session not found")
	}
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}

	if err := s.sessions.Delete(ctx, userID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	s.metrics.SessionClosed()

	if session.Role != id.RoleStudent {
		s.logger.InfoContext(ctx, "admin session closed", slog.String("user_id", userID.String()))
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		removed, err := s.issues.DeleteByAuthor(gctx, userID)
		if err != nil {
			return fmt.Errorf("delete authored issues: %w", err)
		}
		s.logger.InfoContext(gctx, "cascade removed issues", slog.Int("count", removed))
		return nil
	})
	g.Go(func() error {
		removed, err := s.issues.RemoveVotesBy(gctx, userID)
		if err != nil {
			return fmt.Errorf("remove votes: %w", err)
		}
		s.logger.InfoContext(gctx, "cascade removed votes", slog.Int("count", removed))
		return nil
	})
	g.Go(func() error {
		perIssue, err := s.comments.DeleteByAuthor(gctx, userID)
		if err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		for issueID, count := range perIssue {
			err := s.issues.AdjustCommentCount(gctx, issueID, -count)
			// The authored-issues branch may have deleted the parent already.
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return fmt.Errorf("decrement comment count: %w", err)
			}
		}
		return nil
	})
	g.Go(func() error {
		if err := s.notifications.DeleteByUser(gctx, userID); err != nil {
			return fmt.Errorf("delete notifications: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "student session closed with cascade", slog.String("user_id", userID.String()))
	return nil
}

// Suspend marks the session suspended; the user keeps their data but every
// authenticated request is rejected until an appeal is approved.
func (s *Service) Suspend(ctx context.Context, userID id.UserID) error {
	return s.setSuspended(ctx, userID, true)
}

// Unsuspend reinstates a suspended session. Called when an appeal is approved.
func (s *Service) Unsuspend(ctx context.Context, userID id.UserID) error {
	return s.setSuspended(ctx, userID, false)
}

func (s *Service) setSuspended(ctx context.Context, userID id.UserID, suspended bool) error {
	session, err := s.sessions.Find(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return fmt.Errorf("find session: %w", err)
	}
	session.Suspended = suspended
	if err := s.sessions.Save(ctx, *session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "session suspension changed",
		slog.String("user_id", userID.String()),
		slog.Bool("suspended", suspended))
	return nil
}
