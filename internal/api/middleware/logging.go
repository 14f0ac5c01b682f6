package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs one line per request with masked sensitive headers.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			logger.Info("REQUEST",
				"method", r.Method,
				"path", r.URL.Path,
				"requestId", GetRequestID(r.Context()),
				"query", r.URL.RawQuery,
				"headers", maskSensitiveHeaders(r.Header))

			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			logger.Info("RESPONSE",
				"method", r.Method,
				"path", r.URL.Path,
				"requestId", GetRequestID(r.Context()),
				"status", recorder.status,
				"duration", time.Since(startTime))
		})
	}
}

// maskSensitiveHeaders masks sensitive headers
func maskSensitiveHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for k, v := range headers {
		if len(v) > 0 {
			masked[k] = v[0]
		}
	}

	sensitiveHeaders := []string{
		"Authorization",
		"X-Api-Key",
		"Cookie",
	}
	for _, header := range sensitiveHeaders {
		if _, ok := masked[header]; ok {
			masked[header] = "***"
		}
	}
	return masked
}
