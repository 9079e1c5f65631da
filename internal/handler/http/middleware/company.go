package middleware

import (
	"context"
	"net/http"

	"github.com/cmlabs-hris/fleet-metrics-go/internal/handler/http/response"
	"github.com/cmlabs-hris/fleet-metrics-go/internal/pkg/jwt"
)

type claimsKey struct{}

// RequireCompany resolves the tenant from the token and stores it for handlers.
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := jwt.ClaimsFromContext(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Claims returns the tenant context set by RequireCompany.
func Claims(ctx context.Context) jwt.Claims {
	claims, _ := ctx.Value(claimsKey{}).(jwt.Claims)
	return claims
}

// WithClaims is used by tests and internal callers to build an authenticated context.
func WithClaims(ctx context.Context, claims jwt.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}
