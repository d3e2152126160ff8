package reservation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stayfinder/stayfinder-api/internal/pkg/errorhandler"
	"github.com/stayfinder/stayfinder-api/internal/pkg/response"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
	"github.com/stayfinder/stayfinder-api/internal/pkg/validator"
)

// Handler handles reservation form and history HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a reservation handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// OpenForm handles POST /accommodations/{id}/forms
func (h *Handler) OpenForm(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Unauthorized(w, errorhandler.SessionExpiredMessage)
		return
	}

	accommodationID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || accommodationID <= 0 {
		response.BadRequest(w, "Invalid accommodation ID")
		return
	}

	id, form, err := h.service.OpenForm(r.Context(), sess, accommodationID)
	if err != nil {
		if stayapi.IsNotFound(err) {
			response.NotFound(w, MsgAccommodationGone)
			return
		}
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), "Failed to load accommodation", err)
		return
	}

	response.Created(w, NewFormResponse(id, form.View()))
}

// GetForm handles GET /forms/{formID}
func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.form(w, r)
	if !ok {
		return
	}
	response.OK(w, NewFormResponse(id, form.View()))
}

// UpdateForm handles PATCH /forms/{formID}
// Fields are applied in the order check_in, check_out, guests, room_type.
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.form(w, r)
	if !ok {
		return
	}

	var req UpdateFormRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	if err := applyUpdate(form, req); err != nil {
		switch {
		case errors.Is(err, ErrSubmitInProgress):
			response.Conflict(w, MsgSubmitInProgress)
		case errors.Is(err, ErrCheckOutBeforeCheckIn):
			response.ValidationError(w, map[string]string{"check_out": MsgCheckOutOrder})
		case errors.Is(err, ErrUnknownRoomType):
			response.ValidationError(w, map[string]string{"room_type": "Unknown room type"})
		default:
			response.BadRequest(w, "Invalid date. Use YYYY-MM-DD")
		}
		return
	}

	response.OK(w, NewFormResponse(id, form.View()))
}

// SubmitForm handles POST /forms/{formID}/submit
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	id, form, ok := h.form(w, r)
	if !ok {
		return
	}

	_, err := form.Submit(r.Context())
	if err == nil {
		response.Created(w, NewFormResponse(id, form.View()))
		return
	}

	var verr *ValidationError
	var serr *SubmitError
	switch {
	case errors.Is(err, ErrSubmitInProgress):
		response.Conflict(w, MsgSubmitInProgress)
	case errors.As(err, &verr):
		errorhandler.HandleErrorWithDetails(r.Context(), w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", verr.Message, verr.Fields, nil)
	case errors.As(err, &serr):
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(serr.Err), serr.Reason, serr.Err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", MsgSubmitFailed, err)
	}
}

// CloseForm handles DELETE /forms/{formID}
func (h *Handler) CloseForm(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Unauthorized(w, errorhandler.SessionExpiredMessage)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		response.BadRequest(w, "Invalid form ID")
		return
	}

	if err := h.service.CloseForm(sess, id); err != nil {
		response.NotFound(w, MsgFormNotFound)
		return
	}
	response.NoContent(w)
}

// ListReservations handles GET /reservations?page=
func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Unauthorized(w, errorhandler.SessionExpiredMessage)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}

	result, err := h.service.ListReservations(r.Context(), sess, page)
	if err != nil {
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), stayapi.Message(err, "Failed to fetch reservations"), err)
		return
	}

	items := result.Items
	if items == nil {
		items = []stayapi.Reservation{}
	}
	current := result.CurrentPage
	if current == 0 {
		current = page
	}
	response.WithMeta(w, items, response.NewMeta(result.Total, current, result.Pages))
}

// CancelReservation handles POST /reservations/{id}/cancel
func (h *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Unauthorized(w, errorhandler.SessionExpiredMessage)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid reservation ID")
		return
	}

	if err := h.service.CancelReservation(r.Context(), sess, id); err != nil {
		errorhandler.HandleUpstreamError(r.Context(), w, stayapi.HTTPStatus(err), stayapi.Message(err, "Failed to cancel reservation"), err)
		return
	}

	response.OK(w, CancelResponse{ID: id, Status: stayapi.ReservationCancelled})
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) (uuid.UUID, *Form, bool) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		response.Unauthorized(w, errorhandler.SessionExpiredMessage)
		return uuid.Nil, nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		response.BadRequest(w, "Invalid form ID")
		return uuid.Nil, nil, false
	}

	form, err := h.service.Form(sess, id)
	if err != nil {
		response.NotFound(w, MsgFormNotFound)
		return uuid.Nil, nil, false
	}
	return id, form, true
}

func applyUpdate(form *Form, req UpdateFormRequest) error {
	var u Update
	if req.CheckIn != nil {
		date, err := validator.ParseDate(*req.CheckIn)
		if err != nil {
			return err
		}
		u.CheckIn, u.ClearCheckIn = date, date == nil
	}
	if req.CheckOut != nil {
		date, err := validator.ParseDate(*req.CheckOut)
		if err != nil {
			return err
		}
		u.CheckOut, u.ClearCheckOut = date, date == nil
	}
	u.Guests = req.Guests
	u.RoomType = req.RoomType
	return form.Apply(u)
}
