// internal/api/router.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every loan endpoint under /api.
func NewRouter(h *Handlers) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	root.Route("/api", func(api chi.Router) {
		api.Route("/loans", func(r chi.Router) {
			r.Post("/", h.CreateLoan)
			r.Get("/", h.ListLoans)
			r.Get("/active", h.GetActiveLoan)
			r.Put("/active", h.SetActiveLoan)

			r.Route("/{loanID}", func(r chi.Router) {
				r.Get("/", h.GetLoan)
				r.Delete("/", h.DeleteLoan)

				r.Patch("/sections/{section}", h.PatchSection)

				r.Post("/vehicles", h.AddVehicle)
				r.Patch("/vehicles/{vehicleID}", h.PatchVehicle)
				r.Delete("/vehicles/{vehicleID}", h.RemoveVehicle)

				r.Post("/uploads", h.AddUpload)
				r.Delete("/uploads/{uploadID}", h.RemoveUpload)

				r.Put("/steps/{step}", h.SetStepCompletion)
				r.Get("/progress", h.GetProgress)
				r.Get("/guard/{slug}", h.CheckStep)

				r.Post("/submit", h.Submit)
				r.Post("/withdraw", h.Withdraw)
				r.Post("/status/refresh", h.RefreshStatus)
			})
		})

		api.Get("/applications", h.MyApplications)

		api.Route("/admin/applications/{backendID}", func(r chi.Router) {
			r.Post("/approve", h.Approve)
			r.Post("/reject", h.Reject)
			r.Post("/raise_query", h.RaiseQuery)
			r.Post("/resolve_query", h.ResolveQuery)
		})
	})

	return root
}
