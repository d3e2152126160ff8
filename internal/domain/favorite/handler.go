package favorite

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stayfinder/stayfinder-api/internal/pkg/errorhandler"
	"github.com/stayfinder/stayfinder-api/internal/pkg/response"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
)

// Handler for favorites API
type Handler struct {
	toggler *Toggler
}

// NewHandler creates favorites handler
func NewHandler(toggler *Toggler) *Handler {
	return &Handler{toggler: toggler}
}

// List handles GET /favorites
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Unauthorized(w, errorhandler.SessionExpiredMessage)
		return
	}

	favorites, err := h.toggler.List(r.Context(), sess)
	if err != nil {
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), stayapi.Message(err, "Failed to fetch favorites"), err)
		return
	}

	response.OK(w, map[string]interface{}{
		"items": favorites,
		"total": len(favorites),
	})
}

// Toggle handles POST /favorites/{accommodationID}/toggle
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Unauthorized(w, errorhandler.SessionExpiredMessage)
		return
	}

	accommodationID, err := strconv.ParseInt(chi.URLParam(r, "accommodationID"), 10, 64)
	if err != nil || accommodationID <= 0 {
		response.BadRequest(w, "Invalid accommodation ID")
		return
	}

	status, err := h.toggler.Toggle(r.Context(), sess, accommodationID)
	if err != nil {
		if errors.Is(err, ErrTogglePending) {
			response.Conflict(w, "Favorite update already in progress")
			return
		}
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), stayapi.Message(err, "Failed to update favorite status"), err)
		return
	}

	response.OK(w, status)
}

// Routes returns favorites routes
func Routes(h *Handler, authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/{accommodationID}/toggle", h.Toggle)

	return r
}
