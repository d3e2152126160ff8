package accommodation

import (
	"context"
	"errors"
	"fmt"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
	"github.com/stayfinder/stayfinder-api/internal/domain/pricing"
	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
	"github.com/stayfinder/stayfinder-api/internal/pkg/validator"
)

var (
	ErrUnknownRoomType       = errors.New("unknown room type")
	ErrCheckOutBeforeCheckIn = errors.New("check-out before check-in")
)

// Catalog is the read side of the accommodation API.
type Catalog interface {
	SearchAccommodations(ctx context.Context, params stayapi.SearchParams) (*stayapi.AccommodationPage, error)
	GetAccommodation(ctx context.Context, id int64) (*catalog.Accommodation, error)
}

// Service serves accommodation records and stateless quotes.
type Service struct {
	api   Catalog
	cache Cache
}

// NewService creates an accommodation service. A nil cache disables caching.
func NewService(api Catalog, cache Cache) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{api: api, cache: cache}
}

// Get returns one accommodation, from cache when possible.
func (s *Service) Get(ctx context.Context, id int64) (*catalog.Accommodation, error) {
	if acc, ok, err := s.cache.Get(ctx, id); err != nil {
		logger.LogWarn(ctx, "Accommodation cache read failed", "accommodation_id", id, "error", err.Error())
	} else if ok {
		return acc, nil
	}

	acc, err := s.api.GetAccommodation(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, acc); err != nil {
		logger.LogWarn(ctx, "Accommodation cache write failed", "accommodation_id", id, "error", err.Error())
	}
	return acc, nil
}

// Search proxies the accommodation search.
func (s *Service) Search(ctx context.Context, params stayapi.SearchParams) (*stayapi.AccommodationPage, error) {
	return s.api.SearchAccommodations(ctx, params)
}

// Quote prices a stay at an accommodation without opening a form.
func (s *Service) Quote(ctx context.Context, id int64, req QuoteRequest) (pricing.Quote, error) {
	acc, err := s.Get(ctx, id)
	if err != nil {
		return pricing.Quote{}, err
	}

	checkIn, err := validator.ParseDate(req.CheckIn)
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("check_in: %w", err)
	}
	checkOut, err := validator.ParseDate(req.CheckOut)
	if err != nil {
		return pricing.Quote{}, fmt.Errorf("check_out: %w", err)
	}
	if checkIn != nil && checkOut != nil && checkOut.Before(*checkIn) {
		return pricing.Quote{}, ErrCheckOutBeforeCheckIn
	}

	var selected *catalog.RoomType
	if req.RoomType != "" {
		rt, ok := acc.RoomTypes.Find(req.RoomType)
		if !ok {
			return pricing.Quote{}, ErrUnknownRoomType
		}
		selected = &rt
	}

	guests := req.Guests
	if guests == 0 {
		guests = pricing.MinGuests
	}

	return pricing.Compute(pricing.Stay{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   pricing.ClampGuests(guests, selected),
		RoomType: selected,
	}, acc.PriceRange, acc.RoomTypes), nil
}
