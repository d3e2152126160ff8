package accommodation

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
)

// QuoteRequest asks for the price of a stay.
type QuoteRequest struct {
	CheckIn  string `json:"check_in" validate:"omitempty,iso_date"`
	CheckOut string `json:"check_out" validate:"omitempty,iso_date"`
	Guests   int    `json:"guests" validate:"omitempty,min=1"`
	RoomType string `json:"room_type"`
}

// Response is an accommodation as served to the browser.
type Response struct {
	catalog.Accommodation
	PriceAvailable bool `json:"price_available"`
}

// NewResponse wraps a record.
func NewResponse(acc *catalog.Accommodation) Response {
	return Response{
		Accommodation:  *acc,
		PriceAvailable: acc.HasPricing(),
	}
}

// NewListResponse wraps a page of records.
func NewListResponse(items []catalog.Accommodation) []Response {
	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, NewResponse(&items[i]))
	}
	return out
}

// ParseSearchParams reads the browser's search query.
// accessibility and type accept either a JSON object or a comma separated list.
func ParseSearchParams(q url.Values) (stayapi.SearchParams, map[string]string) {
	errs := map[string]string{}
	p := stayapi.SearchParams{Search: strings.TrimSpace(q.Get("search"))}

	if v := q.Get("min_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			errs["min_price"] = "Invalid price"
		} else {
			p.MinPrice = &f
		}
	}
	if v := q.Get("max_price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			errs["max_price"] = "Invalid price"
		} else {
			p.MaxPrice = &f
		}
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MaxPrice < *p.MinPrice {
		errs["max_price"] = "Maximum price must not be below minimum price"
	}

	var ok bool
	if p.Accessibility, ok = parseFlags(q.Get("accessibility")); !ok {
		errs["accessibility"] = "Invalid filter"
	}
	if p.Type, ok = parseFlags(q.Get("type")); !ok {
		errs["type"] = "Invalid filter"
	}

	p.Page, _ = strconv.Atoi(q.Get("page"))
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	if p.PerPage < 1 {
		p.PerPage = 10
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}

	if len(errs) == 0 {
		return p, nil
	}
	return p, errs
}

func parseFlags(v string) (map[string]bool, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, true
	}
	if strings.HasPrefix(v, "{") {
		var m map[string]bool
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return nil, false
		}
		return m, true
	}
	m := map[string]bool{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			m[part] = true
		}
	}
	return m, true
}
