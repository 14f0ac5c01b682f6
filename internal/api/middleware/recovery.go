package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/officehub/backend/internal/api/response"
	"github.com/officehub/backend/internal/domain/errors"
)

// Recovery converts panics into a generic error envelope so a handler
// bug never returns a half-written response.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("PANIC",
						"method", r.Method,
						"path", r.URL.Path,
						"requestId", GetRequestID(r.Context()),
						"panic", rec,
						"stack", string(debug.Stack()))

					response.WriteError(w,
						errors.NewInternalError("an unexpected error occurred", nil),
						GetRequestID(r.Context()))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
