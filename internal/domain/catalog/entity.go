package catalog

import (
	"encoding/json"
)

// RoomType is a bookable unit variant with its own nightly price and base occupancy.
type RoomType struct {
	Type     string  `json:"type"`
	Price    float64 `json:"price"`
	Capacity float64 `json:"capacity"`
}

// RoomTypes decodes from either a JSON array or a JSON string holding an array.
// Malformed entries are dropped during decoding.
type RoomTypes []RoomType

// UnmarshalJSON never fails: unusable input yields an empty list.
func (rt *RoomTypes) UnmarshalJSON(data []byte) error {
	*rt = ParseRoomTypes(json.RawMessage(data))
	return nil
}

// Find returns the room type with the given name.
func (rt RoomTypes) Find(name string) (RoomType, bool) {
	for _, r := range rt {
		if r.Type == name {
			return r, true
		}
	}
	return RoomType{}, false
}

// PriceKind tags the PriceRange variant.
type PriceKind int

const (
	PriceNone PriceKind = iota
	PriceNumeric
	PriceRanged
)

// PriceRange is either a single nightly price or a {min, max?} range.
type PriceRange struct {
	Kind   PriceKind
	Amount float64
	Min    float64
	Max    *float64
}

// NumericPrice builds a single-price variant.
func NumericPrice(amount float64) PriceRange {
	return PriceRange{Kind: PriceNumeric, Amount: amount}
}

// RangePrice builds a ranged variant. upper may be nil.
func RangePrice(lower float64, upper *float64) PriceRange {
	return PriceRange{Kind: PriceRanged, Min: lower, Max: upper}
}

// IsSet reports whether any price information is present.
func (p PriceRange) IsSet() bool {
	return p.Kind != PriceNone
}

// MarshalJSON writes the wire shape the external API uses.
func (p PriceRange) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PriceNumeric:
		return json.Marshal(p.Amount)
	case PriceRanged:
		out := struct {
			Min float64  `json:"min"`
			Max *float64 `json:"max,omitempty"`
		}{Min: p.Min, Max: p.Max}
		return json.Marshal(out)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON resolves the variant once at ingestion. Unrecognised shapes become PriceNone.
func (p *PriceRange) UnmarshalJSON(data []byte) error {
	*p = ParsePriceRange(json.RawMessage(data))
	return nil
}

// Accommodation is the record served by GET /api/accommodations/{id}.
type Accommodation struct {
	ID                    int64           `json:"id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description,omitempty"`
	Type                  string          `json:"type,omitempty"`
	City                  string          `json:"city,omitempty"`
	Location              string          `json:"location,omitempty"`
	StarRating            float64         `json:"star_rating,omitempty"`
	ImageURL              string          `json:"image_url,omitempty"`
	Amenities             []string        `json:"amenities,omitempty"`
	AccessibilityFeatures map[string]bool `json:"accessibility_features,omitempty"`
	PriceRange            PriceRange      `json:"price_range"`
	RoomTypes             RoomTypes       `json:"room_types"`
	BookingConditions     []string        `json:"booking_conditions,omitempty"`
}

// HasPricing reports whether the record carries any price data at all.
func (a *Accommodation) HasPricing() bool {
	return a.PriceRange.IsSet() || len(a.RoomTypes) > 0
}
