package handlers

import (
	"net/http"

	"github.com/officehub/backend/internal/api/middleware"
	"github.com/officehub/backend/internal/api/response"
)

// Health reports liveness. It sits outside authentication.
func Health(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"}, middleware.GetRequestID(r.Context()))
	})
}
