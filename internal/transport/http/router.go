// Package http composes the domain handlers, middleware chains, and
// operational endpoints into the service's router.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"campusvoice/internal/platform/metrics"
	"campusvoice/internal/platform/middleware"
	id "campusvoice/pkg/domain"
)

// PublicRegistrar mounts routes that need no session.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// AuthenticatedRegistrar mounts routes behind RequireAuth.
type AuthenticatedRegistrar interface {
	RegisterAuthenticated(r chi.Router)
}

// AdminRegistrar mounts routes behind RequireAuth + RequireRole(admin).
type AdminRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// Handlers collects every domain handler the router mounts. Nil entries are
// skipped so tests can wire a subset.
type Handlers struct {
	Public        []PublicRegistrar
	Authenticated []AuthenticatedRegistrar
	Admin         []AdminRegistrar
}

// New builds the service router.
func New(
	handlers Handlers,
	validator middleware.TokenValidator,
	guard middleware.SessionGuard,
	m *metrics.Metrics,
	logger *slog.Logger,
	health http.HandlerFunc,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(public chi.Router) {
		public.Use(middleware.ContentTypeJSON)
		public.Use(middleware.OptionalAuth(validator, guard))
		for _, h := range handlers.Public {
			h.RegisterPublic(public)
		}
	})

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.ContentTypeJSON)
		authed.Use(middleware.RequireAuth(validator, guard, logger))
		for _, h := range handlers.Authenticated {
			h.RegisterAuthenticated(authed)
		}

		authed.Group(func(admin chi.Router) {
			admin.Use(middleware.RequireRole(string(id.RoleAdmin), logger))
			for _, h := range handlers.Admin {
				h.RegisterAdmin(admin)
			}
		})
	})

	return r
}
