package reservation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// FormRoutes returns the reservation form router, mounted at /forms.
func (h *Handler) FormRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/{formID}", h.GetForm)
	r.Patch("/{formID}", h.UpdateForm)
	r.Delete("/{formID}", h.CloseForm)
	r.Post("/{formID}/submit", h.SubmitForm)

	return r
}

// HistoryRoutes returns the reservation history router, mounted at /reservations.
func (h *Handler) HistoryRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.ListReservations)
	r.Post("/{id}/cancel", h.CancelReservation)

	return r
}
