package stayapi

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
)

// SearchParams are the accommodation search filters.
type SearchParams struct {
	Search        string
	MinPrice      *float64
	MaxPrice      *float64
	Accessibility map[string]bool
	Type          map[string]bool
	Page          int
	PerPage       int
}

// Values encodes the filters the way the accommodation API expects them:
// map filters are sent as JSON objects, unset filters are omitted.
func (p SearchParams) Values() url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.MinPrice != nil {
		q.Set("min_price", strconv.FormatFloat(*p.MinPrice, 'f', -1, 64))
	}
	if p.MaxPrice != nil {
		q.Set("max_price", strconv.FormatFloat(*p.MaxPrice, 'f', -1, 64))
	}
	if p.Accessibility != nil {
		if b, err := json.Marshal(p.Accessibility); err == nil {
			q.Set("accessibility", string(b))
		}
	}
	if p.Type != nil {
		if b, err := json.Marshal(p.Type); err == nil {
			q.Set("type", string(b))
		}
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

// AccommodationPage is a page of search results.
type AccommodationPage struct {
	Items       []catalog.Accommodation `json:"items"`
	Total       int                     `json:"total"`
	Pages       int                     `json:"pages"`
	CurrentPage int                     `json:"current_page"`
}

// ReservationRequest is the body of POST /api/reservations.
type ReservationRequest struct {
	AccommodationID int64   `json:"accommodation_id" validate:"required,min=1"`
	CheckIn         string  `json:"check_in" validate:"required,iso_date"`
	CheckOut        string  `json:"check_out" validate:"required,iso_date"`
	Guests          int     `json:"guests" validate:"required,min=1"`
	TotalPrice      float64 `json:"total_price" validate:"gte=0"`
	RoomType        string  `json:"room_type,omitempty"`
}

// ReservationAccommodation is the accommodation summary embedded in reservations.
type ReservationAccommodation struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Location   string             `json:"location,omitempty"`
	ImageURL   string             `json:"image_url,omitempty"`
	PriceRange catalog.PriceRange `json:"price_range"`
}

// Reservation statuses reported by the API.
const (
	ReservationActive    = "active"
	ReservationCancelled = "cancelled"
)

// Reservation is a reservation record.
type Reservation struct {
	ID              int64                     `json:"id"`
	AccommodationID int64                     `json:"accommodation_id"`
	CheckIn         string                    `json:"check_in"`
	CheckOut        string                    `json:"check_out"`
	Guests          int                       `json:"guests"`
	TotalPrice      float64                   `json:"total_price"`
	RoomType        string                    `json:"room_type,omitempty"`
	Status          string                    `json:"status"`
	CreatedAt       string                    `json:"created_at,omitempty"`
	Accommodation   *ReservationAccommodation `json:"accommodation,omitempty"`
}

// ReservationPage is a page of the reservation history.
type ReservationPage struct {
	Items       []Reservation `json:"items"`
	Total       int           `json:"total"`
	Pages       int           `json:"pages"`
	CurrentPage int           `json:"current_page"`
}

// FavoriteTypeAccommodation is the only favorite kind this gateway manages.
const FavoriteTypeAccommodation = "accommodation"

// Favorite is a bookmarked item.
type Favorite struct {
	ID              int64  `json:"id"`
	Type            string `json:"type"`
	AccommodationID int64  `json:"accommodation_id"`
}

// FavoriteRequest is the body of POST /api/favorites.
type FavoriteRequest struct {
	Type            string `json:"type" validate:"required,favorite_type"`
	AccommodationID int64  `json:"accommodation_id" validate:"required,min=1"`
}
