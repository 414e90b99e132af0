package access

import (
	"encoding/json"
	"net/http"

	"github.com/valinor-ai/navgate/internal/audit"
	"github.com/valinor-ai/navgate/internal/auth"
	"github.com/valinor-ai/navgate/internal/platform/middleware"
	"github.com/valinor-ai/navgate/internal/rolemapper"
)

// MiddlewareOption configures the route guard.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	audit audit.Logger
}

// WithAuditLogger attaches an audit logger to log denials.
func WithAuditLogger(logger audit.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.audit = logger
	}
}

// RequirePath returns middleware that lets a request through only when the
// authenticated user holds kind on the dashboard path.
func RequirePath(engine *Evaluator, mapper *rolemapper.Mapper, kind Kind, path string, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	var mc middlewareConfig
	for _, opt := range opts {
		opt(&mc)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.GetIdentity(r.Context())
			if identity == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
				return
			}

			user := mapper.MapUserRole(identity.User)
			decision := engine.Evaluate(user, path, kind)
			if !decision.Allowed {
				if mc.audit != nil {
					mc.audit.Log(r.Context(), audit.Event{
						UserID: identity.UserID,
						Action: audit.ActionAccessDenied,
						Path:   path,
						Metadata: map[string]any{
							audit.MetadataKind:      string(kind),
							audit.MetadataReason:    decision.Reason,
							audit.MetadataRequestID: middleware.GetRequestID(r.Context()),
						},
						Source: "api",
					})
				}
				writeJSON(w, http.StatusForbidden, map[string]string{
					"error":  "forbidden",
					"reason": decision.Reason,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
