package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caresight/claimflow/config"
)

// NewRouter wires the HTTP surface: a health probe and the claim submission
// endpoint.
func NewRouter(cfg config.Config, h *ClaimHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Post("/process-claim", h.ProcessClaim(cfg.MaxBodyBytes))

	return r
}
