package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		RequestID(),
		Logging(h.logger),
	)

	mux.HandleFunc("GET /healthz", h.Health)

	mux.Handle("GET /api/v1/watch/stats", chain(http.HandlerFunc(h.WatchStats)))
	mux.Handle("GET /api/v1/runs/{id}/outcomes", chain(http.HandlerFunc(h.ListRunOutcomes)))
	mux.Handle("POST /api/v1/jobs", chain(http.HandlerFunc(h.SubmitJob)))
}
