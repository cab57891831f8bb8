// Package httpapi assembles the public HTTP surface: middleware stack,
// authenticated student routes and admin-only routes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	applicationhandler "placement/internal/application/handler"
	audithandler "placement/internal/audit/handler"
	postinghandler "placement/internal/posting/handler"
	profilehandler "placement/internal/profile/handler"
	id "placement/pkg/domain"
	authmw "placement/pkg/platform/middleware/auth"
	requestmw "placement/pkg/platform/middleware/request"
	rolemw "placement/pkg/platform/middleware/role"
)

// Deps carries everything the router needs. Health checkers are optional;
// nil entries are skipped.
type Deps struct {
	Logger         *slog.Logger
	TokenValidator authmw.TokenValidator
	RequestTimeout time.Duration

	Profile     *profilehandler.Handler
	Posting     *postinghandler.Handler
	Application *applicationhandler.Handler
	Audit       *audithandler.Handler

	HealthChecks map[string]func(context.Context) error
}

// New builds the router. All business routes sit behind authentication;
// verification, posting management and cohort transitions additionally
// require the admin role.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(requestmw.Recovery(deps.Logger))
	r.Use(requestmw.RequestID)
	r.Use(requestmw.RequestTime)
	r.Use(requestmw.Logger(deps.Logger))
	if deps.RequestTimeout > 0 {
		r.Use(requestmw.Timeout(deps.RequestTimeout))
	}

	r.Get("/healthz", healthHandler(deps.HealthChecks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(requestmw.ContentTypeJSON)
		r.Use(authmw.RequireAuth(deps.TokenValidator, deps.Logger))

		deps.Profile.Register(r)
		deps.Posting.Register(r)
		deps.Application.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(rolemw.Require(id.RoleAdmin, deps.Logger))

			deps.Profile.RegisterVerification(r)
			deps.Posting.RegisterAdmin(r)
			deps.Application.RegisterAdmin(r)
			deps.Audit.Register(r)
		})
	})

	return r
}

func healthHandler(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check(ctx); err != nil {
				http.Error(w, name+" unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
