package middleware

import (
	"fmt"
	"net/http"

	"github.com/pinnacle-hris/payroll-engine/internal/handler/http/response"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/jwt"
)

// RequireHR requires one of the HR roles
func RequireHR(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFrom(r.Context())
		if !ok || !actor.Role.Valid() {
			response.Forbidden(w, "HR access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireRole checks the actor holds one of roles
func RequireRole(roles ...jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFrom(r.Context())
			if !ok {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' not allowed", actor.Role))
		})
	}
}
