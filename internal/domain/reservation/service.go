package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/stayfinder/stayfinder-api/internal/domain/catalog"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
)

// API is the slice of the accommodation API used for reservations.
type API interface {
	Reserver
	ListReservations(ctx context.Context, page int) (*stayapi.ReservationPage, error)
	CancelReservation(ctx context.Context, id int64) error
}

// ClientFactory returns an API client authenticated as the session.
type ClientFactory func(s *session.Session) API

// AccommodationSource loads accommodation records.
type AccommodationSource interface {
	Get(ctx context.Context, id int64) (*catalog.Accommodation, error)
}

// Service owns reservation forms and proxies the reservation history.
type Service struct {
	accommodations AccommodationSource
	clients        ClientFactory
	registry       *Registry
	cfg            Config
}

// NewService creates a reservation service.
func NewService(accommodations AccommodationSource, clients ClientFactory, registry *Registry, cfg Config) *Service {
	return &Service{
		accommodations: accommodations,
		clients:        clients,
		registry:       registry,
		cfg:            cfg,
	}
}

// OpenForm loads the accommodation and opens a form bound to the session.
func (s *Service) OpenForm(ctx context.Context, sess *session.Session, accommodationID int64) (uuid.UUID, *Form, error) {
	acc, err := s.accommodations.Get(ctx, accommodationID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("load accommodation %d: %w", accommodationID, err)
	}

	form := NewForm(*acc, s.clients(sess), s.cfg)
	id := s.registry.Open(sess.Key(), form)
	return id, form, nil
}

// Form returns an open form of the session.
func (s *Service) Form(sess *session.Session, id uuid.UUID) (*Form, error) {
	return s.registry.Get(sess.Key(), id)
}

// CloseForm discards an open form and its draft.
func (s *Service) CloseForm(sess *session.Session, id uuid.UUID) error {
	return s.registry.Close(sess.Key(), id)
}

// ListReservations returns a page of the session's reservation history.
func (s *Service) ListReservations(ctx context.Context, sess *session.Session, page int) (*stayapi.ReservationPage, error) {
	return s.clients(sess).ListReservations(ctx, page)
}

// CancelReservation cancels one of the session's reservations.
func (s *Service) CancelReservation(ctx context.Context, sess *session.Session, id int64) error {
	return s.clients(sess).CancelReservation(ctx, id)
}
