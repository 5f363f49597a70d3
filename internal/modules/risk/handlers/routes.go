package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/positions", func(r chi.Router) {
		r.Get("/", h.HandleListPositions)
		r.Put("/{id}", h.HandleUpsertPosition)
		r.Delete("/{id}", h.HandleRemovePosition)
	})

	r.Route("/risk", func(r chi.Router) {
		r.Get("/summary", h.HandleGetSummary)
		r.Get("/factors", h.HandleGetFactors)
		r.Get("/concentration", h.HandleGetConcentration)
		r.Get("/correlation", h.HandleGetCorrelation)
		r.Get("/black-swan", h.HandleGetBlackSwan)

		r.Route("/stress", func(r chi.Router) {
			r.Get("/", h.HandleGetStressTests)
			r.Get("/scenarios", h.HandleListScenarios)
			r.Post("/scenarios", h.HandleAddScenario)
			r.Get("/{scenario}", h.HandleGetStressTest)
		})

		r.Route("/regime", func(r chi.Router) {
			r.Get("/", h.HandleGetRegime)
			r.Post("/signals", h.HandleObserveSignals)
			r.Put("/current", h.HandleSetRegime)
		})

		r.Route("/simulate", func(r chi.Router) {
			r.Use(h.rateLimited)
			r.Post("/", h.HandleSimulate)
			r.Post("/stress/{scenario}", h.HandleSimulateStress)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", h.HandleGenerateReport)
			r.Get("/latest", h.HandleLatestReport)
			r.Get("/history", h.HandleReportHistory)
			r.Get("/trend", h.HandleReportTrend)
			r.Get("/export", h.HandleExportReports)
		})
	})
}

// RegisterStreamRoutes registers long-lived routes. They must be mounted
// outside any request timeout middleware.
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/risk/reports/stream", h.HandleReportStream)
}
