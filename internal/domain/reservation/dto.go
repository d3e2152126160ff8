package reservation

import (
	"github.com/google/uuid"

	"github.com/stayfinder/stayfinder-api/internal/domain/pricing"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
	"github.com/stayfinder/stayfinder-api/internal/pkg/validator"
)

// UpdateFormRequest edits a form. Absent fields are left alone; an empty
// date or room type clears it.
type UpdateFormRequest struct {
	CheckIn  *string `json:"check_in" validate:"omitempty,iso_date"`
	CheckOut *string `json:"check_out" validate:"omitempty,iso_date"`
	Guests   *int    `json:"guests" validate:"omitempty,min=1"`
	RoomType *string `json:"room_type"`
}

// DraftResponse is the draft as shown to the browser.
type DraftResponse struct {
	CheckIn   string `json:"check_in,omitempty"`
	CheckOut  string `json:"check_out,omitempty"`
	Guests    int    `json:"guests"`
	RoomType  string `json:"room_type,omitempty"`
	MaxGuests int    `json:"max_guests"`
}

// FormResponse represents a reservation form.
type FormResponse struct {
	ID              string               `json:"id"`
	AccommodationID int64                `json:"accommodation_id"`
	Draft           DraftResponse        `json:"draft"`
	Quote           pricing.Quote        `json:"quote"`
	State           State                `json:"state"`
	Error           string               `json:"error,omitempty"`
	Validation      map[string]string    `json:"validation,omitempty"`
	Reservation     *stayapi.Reservation `json:"reservation,omitempty"`
}

// NewFormResponse converts a form snapshot.
func NewFormResponse(id uuid.UUID, v View) FormResponse {
	draft := DraftResponse{
		Guests:    v.Draft.Guests,
		MaxGuests: v.MaxGuests,
	}
	if v.Draft.CheckIn != nil {
		draft.CheckIn = v.Draft.CheckIn.Format(validator.ISODateLayout)
	}
	if v.Draft.CheckOut != nil {
		draft.CheckOut = v.Draft.CheckOut.Format(validator.ISODateLayout)
	}
	if v.Draft.RoomType != nil {
		draft.RoomType = v.Draft.RoomType.Type
	}

	resp := FormResponse{
		ID:              id.String(),
		AccommodationID: v.AccommodationID,
		Draft:           draft,
		Quote:           v.Quote,
		State:           v.State,
		Error:           v.Error,
		Reservation:     v.Reservation,
	}
	if v.Validation != nil {
		resp.Validation = v.Validation.Fields
	}
	return resp
}

// CancelResponse is returned after a cancellation.
type CancelResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}
