package accommodation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the public accommodation router. Extra registers
// additional routes on the same subtree, e.g. opening a reservation form.
func (h *Handler) Routes(extra ...func(r chi.Router)) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Search)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/quote", h.Quote)

	for _, register := range extra {
		register(r)
	}

	return r
}

// With returns a registration that mounts handler at pattern behind middleware.
func With(method, pattern string, middleware func(http.Handler) http.Handler, handler http.HandlerFunc) func(r chi.Router) {
	return func(r chi.Router) {
		r.With(middleware).Method(method, pattern, handler)
	}
}
