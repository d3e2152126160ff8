package accommodation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stayfinder/stayfinder-api/internal/pkg/errorhandler"
	"github.com/stayfinder/stayfinder-api/internal/pkg/response"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
	"github.com/stayfinder/stayfinder-api/internal/pkg/validator"
)

// Handler handles accommodation HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates an accommodation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Search handles GET /accommodations
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	params, errs := ParseSearchParams(r.URL.Query())
	if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	page, err := h.service.Search(r.Context(), params)
	if err != nil {
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), "Failed to fetch accommodations", err)
		return
	}

	current := page.CurrentPage
	if current == 0 {
		current = params.Page
	}
	response.WithMeta(w, NewListResponse(page.Items), response.NewMeta(page.Total, current, page.Pages))
}

// Get handles GET /accommodations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accommodationID(w, r)
	if !ok {
		return
	}

	acc, err := h.service.Get(r.Context(), id)
	if err != nil {
		if stayapi.IsNotFound(err) {
			response.NotFound(w, "Accommodation not found")
			return
		}
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), "Failed to fetch accommodation details", err)
		return
	}

	response.OK(w, NewResponse(acc))
}

// Quote handles POST /accommodations/{id}/quote
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	id, ok := accommodationID(w, r)
	if !ok {
		return
	}

	var req QuoteRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	quote, err := h.service.Quote(r.Context(), id, req)
	switch {
	case err == nil:
		response.OK(w, quote)
	case errors.Is(err, ErrUnknownRoomType):
		response.ValidationError(w, map[string]string{"room_type": "Unknown room type"})
	case errors.Is(err, ErrCheckOutBeforeCheckIn):
		response.ValidationError(w, map[string]string{"check_out": "Check-out date cannot be before check-in date"})
	case stayapi.IsNotFound(err):
		response.NotFound(w, "Accommodation not found")
	default:
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), "Failed to fetch accommodation details", err)
	}
}

func accommodationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid accommodation ID")
		return 0, false
	}
	return id, true
}
