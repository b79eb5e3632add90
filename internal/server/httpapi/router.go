package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes constructs the chi router containing all API endpoints. /api/ping is
// unauthenticated so clients can probe reachability without a valid token.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", a.handlePing)

		r.Group(func(r chi.Router) {
			r.Use(a.withAuth)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", a.handleCreateSession)
				r.Get("/", a.handleListSessions)
				r.Get("/active", a.handleFindActiveSession)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", a.handleGetSession)
					r.Delete("/", a.handleDeleteSession)
					r.Patch("/metadata", a.handlePatchMetadata)
					r.Put("/content", a.handlePutContent)
					r.Post("/steps/{step}", a.handleSubmitStep)
					r.Post("/abandon", a.handleAbandonSession)
				})
			})

			r.Route("/resumes", func(r chi.Router) {
				r.Post("/uploads", a.handleCreateUpload)
				r.Post("/uploads/{id}/confirm", a.handleConfirmUpload)
			})

			r.Route("/evidence", func(r chi.Router) {
				r.Post("/{resumeID}", a.handleIngestEvidence)
				r.Get("/documents/{id}", a.handleGetEvidence)
			})
		})
	})

	return r
}
