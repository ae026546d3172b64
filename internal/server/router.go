// internal/server/router.go
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kyc-verifier/internal/common/logger"
)

// NewRouter assembles the HTTP surface: the authenticated /api/v1 tree
// plus unauthenticated health and metrics endpoints.
func NewRouter(handler *Handler, apiKey string, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", handler.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RequireAPIKey(apiKey, log))

		r.Post("/individual/verifications", handler.VerifyIndividual)
		r.Post("/individual/ocr", handler.ExtractOCR)
		r.Post("/company/verifications", handler.VerifyCompany)
		r.Get("/verifications/{id}", handler.GetVerification)
	})

	return r
}
