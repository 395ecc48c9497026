package model

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pe_modeller/pkg/logger"
)

// NewRouter wires the model endpoints, health check and metrics.
func NewRouter(h *Handler, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		replyJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the model API under /api/model.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/model", func(r chi.Router) {
		r.Get("/defaults", handler(h.HandleDefaults))
		r.Post("/evaluate", handler(h.HandleEvaluate))
		r.Post("/sensitivity", handler(h.HandleSensitivity))
		r.Post("/matrix", handler(h.HandleMatrix))
		r.Post("/tornado", handler(h.HandleTornado))
		r.Post("/export", handler(h.HandleExport))
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			replyError(r.Context(), w, err)
		}
	}
}
