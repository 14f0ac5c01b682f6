package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/officehub/backend/internal/api/response"
	"github.com/officehub/backend/internal/common/utils"
	"github.com/officehub/backend/internal/platform/upstream"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*utils.DashboardClaims, error)
}

type claimsKey struct{}

// Authenticate verifies the bearer token and stores the caller's claims
// and upstream scope in the request context. The health endpoint stays
// public.
func Authenticate(verifier TokenVerifier, log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			token, err := utils.ExtractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				response.AuthenticationError(w, err.Error(), GetRequestID(r.Context()))
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				log.Warn("token verification failed",
					zap.String("path", r.URL.Path),
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err))
				response.WriteError(w, err, GetRequestID(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = upstream.WithScope(ctx, upstream.Scope{
				Token:      token,
				Role:       claims.Role,
				EmployeeID: claims.EmployeeID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims returns the authenticated caller's claims.
func GetClaims(ctx context.Context) (*utils.DashboardClaims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*utils.DashboardClaims)
	return claims, ok
}

// RequireAdmin rejects non-admin callers.
func RequireAdmin(log *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				response.AuthenticationError(w, "not authenticated", GetRequestID(r.Context()))
				return
			}
			if !claims.IsAdmin() {
				log.Warn("admin route denied",
					zap.String("path", r.URL.Path),
					zap.String("email", claims.Email),
					zap.String("role", claims.Role))
				response.AuthorizationError(w, "this page requires the admin role", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
