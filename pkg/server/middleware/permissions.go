package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/quillworks/quill/pkg/rbac"
)

// Enforcer is middleware that checks the caller holds every permission
// declared for the matched route. Routes with no declaration pass
// through; authentication is the token middleware's job.
type Enforcer struct {
	Perms *rbac.Registry
}

// NewEnforcer creates a new permission enforcement middleware
func NewEnforcer(perms *rbac.Registry) *Enforcer {
	return &Enforcer{Perms: perms}
}

// Middleware returns an HTTP middleware enforcing route permissions.
func (e *Enforcer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := mux.CurrentRoute(r)
		if route == nil {
			next.ServeHTTP(w, r)
			return
		}
		template, err := route.GetPathTemplate()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		required := e.Perms.RouteRequirements(r.Method, template)
		if len(required) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		id, ok := IdentityFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte("Authentication required"))
			return
		}

		effective := e.Perms.Effective(id.Role, id.Permissions)
		if !rbac.HasAll(effective, required...) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("Insufficient permissions"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
