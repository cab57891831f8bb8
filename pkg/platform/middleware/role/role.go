package role

import (
	"log/slog"
	"net/http"

	id "placement/pkg/domain"
	request "placement/pkg/platform/middleware/request"
	"placement/pkg/requestcontext"
)

// Require refuses requests whose authenticated caller does not hold the given
// role. Services enforce the same check again; the middleware exists so
// unauthorized calls fail before any body is decoded.
func Require(required id.Role, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requestcontext.Role(r.Context()) != required {
				ctx := r.Context()
				logger.WarnContext(ctx, "forbidden - role mismatch",
					"request_id", request.GetRequestID(ctx),
					"required_role", string(required),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
