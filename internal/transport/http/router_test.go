package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"campusvoice/internal/issue/handler"
	"campusvoice/internal/issue/moderation"
	"campusvoice/internal/issue/service"
	"campusvoice/internal/issue/store"
	"campusvoice/internal/platform/middleware"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/testutil"
)

type stubValidator struct {
	claims *middleware.TokenClaims
}

func (s stubValidator) ValidateToken(token string) (*middleware.TokenClaims, error) {
	if s.claims == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return s.claims, nil
}

type stubGuard struct {
	err error
}

func (s stubGuard) CheckSession(ctx context.Context, userID id.UserID) error {
	return s.err
}

func newTestRouter(t *testing.T, claims *middleware.TokenClaims, guard middleware.SessionGuard) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), nil, moderation.NewEngine(3, 10), nil, logger)
	issueHandler := handler.New(svc, logger)

	return New(Handlers{
		Public:        []PublicRegistrar{issueHandler},
		Authenticated: []AuthenticatedRegistrar{issueHandler},
		Admin:         []AdminRegistrar{issueHandler},
	}, stubValidator{claims: claims}, guard, nil, logger,
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestRouterGroups(t *testing.T) {
	t.Run("healthz is open", func(t *testing.T) {
		router := newTestRouter(t, nil, stubGuard{})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/healthz", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("public feed needs no token", func(t *testing.T) {
		router := newTestRouter(t, nil, stubGuard{})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/issues", nil))
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("submission requires a token", func(t *testing.T) {
		router := newTestRouter(t, nil, stubGuard{})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/issues", map[string]string{}))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("admin routes reject student sessions", func(t *testing.T) {
		router := newTestRouter(t, &middleware.TokenClaims{
			UserID: "8b8f9df2-84f9-43a8-91a5-86b6f2a5fc0f", Role: "student", Nickname: "calm-otter-7",
		}, stubGuard{})
		req := testutil.NewJSONRequest(t, http.MethodPost,
			"/issues/8b8f9df2-84f9-43a8-91a5-86b6f2a5fc0f/restore", nil)
		req.Header.Set("Authorization", "Bearer anything")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("suspended sessions cannot post despite a valid token", func(t *testing.T) {
		router := newTestRouter(t, &middleware.TokenClaims{
			UserID: "8b8f9df2-84f9-43a8-91a5-86b6f2a5fc0f", Role: "student", Nickname: "calm-otter-7",
		}, stubGuard{err: dErrors.New(dErrors.CodeForbidden, "account is suspended")})
		req := testutil.NewJSONRequest(t, http.MethodPost, "/issues", map[string]string{
			"title": "t", "description": "d", "category": "c", "location": "l",
		})
		req.Header.Set("Authorization", "Bearer anything")
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("metrics endpoint responds", func(t *testing.T) {
		router := newTestRouter(t, nil, stubGuard{})
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
