package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/httputil"
	"campusvoice/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// SessionGuard checks the token bearer's session against the live session
// store. A valid JWT is not enough on its own: logout deletes the session and
// suspension flags it, and both must take effect before the token expires.
type SessionGuard interface {
	CheckSession(ctx context.Context, userID id.UserID) error
}

// TokenClaims is what the auth middleware needs from a validated token.
type TokenClaims struct {
	UserID   string
	Role     string
	Nickname string
}

// RequireAuth validates the Authorization bearer token, confirms the session
// is still live and not suspended, and injects the user identity into the
// request context.
func RequireAuth(validator TokenValidator, guard SessionGuard, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject"))
				return
			}

			if guard != nil {
				if err := guard.CheckSession(ctx, userID); err != nil {
					logger.WarnContext(ctx, "rejected token with dead or suspended session",
						"user_id", userID.String(),
						"request_id", requestcontext.RequestID(ctx),
					)
					httputil.WriteError(w, err)
					return
				}
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			ctx = requestcontext.WithNickname(ctx, claims.Nickname)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth injects the user identity when a valid bearer token is
// present and passes the request through anonymously otherwise. Used on
// public routes whose responses vary by viewer. A dead or suspended session
// degrades to an anonymous view rather than an error.
func OptionalAuth(validator TokenValidator, guard SessionGuard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if guard != nil {
				if err := guard.CheckSession(ctx, userID); err != nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithRole(ctx, claims.Role)
			ctx = requestcontext.WithNickname(ctx, claims.Nickname)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose session role does not match.
// Mount after RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.Role(ctx) != role {
				logger.WarnContext(ctx, "forbidden - role mismatch",
					"required", role,
					"actual", requestcontext.Role(ctx),
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
