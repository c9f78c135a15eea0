package report

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers report routes
func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/process", h.Process)
		r.Get("/status/{job_id}", h.GetStatus)
		r.Post("/query", h.Query)
		r.Get("/reports/{report_id}/answers/{question_id}", h.ExportAnswer)
	})
}
