package pricing

import (
	"math"
	"time"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
)

const (
	// VATRate is the fixed value added tax applied to every stay.
	VATRate = 0.21
	// GuestSurchargeRate is charged per extra guest, per night, as a share of the base price.
	GuestSurchargeRate = 0.25

	// DefaultMaxGuests caps the guest stepper when no room type is selected.
	DefaultMaxGuests = 10
	// MinGuests is the lower bound of the guest stepper.
	MinGuests = 1

	day = 24 * time.Hour
)

// Stay is the input of a price computation.
type Stay struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Guests   int
	RoomType *catalog.RoomType
}

// Quote is the price breakdown shown before submission.
type Quote struct {
	BasePrice      float64 `json:"base_price"`
	GuestSurcharge float64 `json:"guest_surcharge"`
	Subtotal       float64 `json:"subtotal"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
	Nights         int     `json:"nights"`
}

// Compute derives the quote for a stay. It is pure: equal inputs give bit-identical outputs.
// The quote is all zero until both dates are set.
func Compute(stay Stay, priceRange catalog.PriceRange, roomTypes []catalog.RoomType) Quote {
	if stay.CheckIn == nil || stay.CheckOut == nil {
		return Quote{}
	}

	active := activeRoomType(stay.RoomType, roomTypes)
	base := basePrice(active, priceRange)

	var surcharge float64
	if active != nil && float64(stay.Guests) > active.Capacity {
		surcharge = (float64(stay.Guests) - active.Capacity) * base * GuestSurchargeRate
	}

	nights := Nights(stay.CheckIn, stay.CheckOut)
	subtotal := (base + surcharge) * float64(nights)
	tax := RoundCents(subtotal * VATRate)

	return Quote{
		BasePrice:      base,
		GuestSurcharge: surcharge,
		Subtotal:       subtotal,
		Tax:            tax,
		Total:          subtotal + tax,
		Nights:         nights,
	}
}

// Nights counts started days between check-in and check-out. A stay ending 26 hours
// after check-in is two nights. Missing dates or reversed order give zero.
func Nights(checkIn, checkOut *time.Time) int {
	if checkIn == nil || checkOut == nil {
		return 0
	}
	diff := checkOut.Sub(*checkIn)
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// MaxGuests is the guest stepper ceiling for the given selection.
func MaxGuests(selected *catalog.RoomType) int {
	if selected == nil {
		return DefaultMaxGuests
	}
	limit := int(math.Floor(selected.Capacity * 2))
	if limit < MinGuests {
		return MinGuests
	}
	return limit
}

// ClampGuests bounds n to [MinGuests, MaxGuests(selected)].
func ClampGuests(n int, selected *catalog.RoomType) int {
	if n < MinGuests {
		return MinGuests
	}
	if limit := MaxGuests(selected); n > limit {
		return limit
	}
	return n
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// activeRoomType is the selected room type, or the first catalog entry when none is selected.
func activeRoomType(selected *catalog.RoomType, roomTypes []catalog.RoomType) *catalog.RoomType {
	if selected != nil {
		return selected
	}
	if len(roomTypes) > 0 {
		first := roomTypes[0]
		return &first
	}
	return nil
}

func basePrice(active *catalog.RoomType, priceRange catalog.PriceRange) float64 {
	if active != nil {
		return active.Price
	}
	switch priceRange.Kind {
	case catalog.PriceRanged:
		return priceRange.Min
	case catalog.PriceNumeric:
		return priceRange.Amount
	default:
		return 0
	}
}
