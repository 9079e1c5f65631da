package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/jwt"
)

// RequireRole rejects callers below the minimum role. Must run after RequireCompany.
func RequireRole(min jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := Claims(r.Context())
			if !claims.HasRole(min) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", min, claims.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireSupervisor allows supervisor rank and above.
func RequireSupervisor(next http.Handler) http.Handler {
	return RequireRole(jwt.RoleSupervisor)(next)
}

// RequireAdmin allows admin rank and above.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(jwt.RoleAdmin)(next)
}
