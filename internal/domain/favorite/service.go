package favorite

import (
	"context"
	"errors"
	"fmt"

	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
	"github.com/stayfinder/stayfinder-api/internal/pkg/session"
	"github.com/stayfinder/stayfinder-api/internal/pkg/stayapi"
)

var ErrTogglePending = errors.New("favorite update already in progress")

// API is the favorites part of the accommodation API.
type API interface {
	ListFavorites(ctx context.Context, favType string) ([]stayapi.Favorite, error)
	AddFavorite(ctx context.Context, req stayapi.FavoriteRequest) (*stayapi.Favorite, error)
	RemoveFavorite(ctx context.Context, favoriteID int64) error
}

// ClientFactory returns an API client authenticated as the session.
type ClientFactory func(s *session.Session) API

// Status is the favorite state of one accommodation.
type Status struct {
	AccommodationID int64 `json:"accommodation_id"`
	IsFavorite      bool  `json:"is_favorite"`
}

// Toggler flips favorites optimistically: the new state is applied at once
// and rolled back if the API does not confirm it.
type Toggler struct {
	repo    *Repository
	clients ClientFactory
}

// NewToggler creates a favorites toggler.
func NewToggler(repo *Repository, clients ClientFactory) *Toggler {
	return &Toggler{repo: repo, clients: clients}
}

// List fetches the session's favorite accommodations and refreshes local state.
func (t *Toggler) List(ctx context.Context, sess *session.Session) ([]stayapi.Favorite, error) {
	favorites, err := t.clients(sess).ListFavorites(ctx, stayapi.FavoriteTypeAccommodation)
	if err != nil {
		return nil, err
	}

	byAccommodation := make(map[int64]int64, len(favorites))
	for _, f := range favorites {
		byAccommodation[f.AccommodationID] = f.ID
	}
	t.repo.Replace(sess.Key(), byAccommodation)

	if favorites == nil {
		favorites = []stayapi.Favorite{}
	}
	return favorites, nil
}

// Toggle flips the favorite state of an accommodation for the session.
// On failure the previous state is restored and returned along with the error.
func (t *Toggler) Toggle(ctx context.Context, sess *session.Session, accommodationID int64) (Status, error) {
	owner := sess.Key()

	if !t.repo.Loaded(owner) {
		if _, err := t.List(ctx, sess); err != nil {
			return Status{AccommodationID: accommodationID}, fmt.Errorf("load favorites: %w", err)
		}
	}

	tx, err := t.repo.Begin(owner, accommodationID)
	if err != nil {
		return Status{AccommodationID: accommodationID, IsFavorite: t.repo.IsFavorite(owner, accommodationID)}, err
	}

	wasFavorite := t.repo.IsFavorite(owner, accommodationID)
	tx.Set(!wasFavorite, 0)

	api := t.clients(sess)
	if wasFavorite {
		err = t.remove(ctx, api, tx, accommodationID)
	} else {
		err = t.add(ctx, api, tx, accommodationID)
	}

	if err != nil {
		tx.Rollback()
		logger.LogWarn(ctx, "Favorite toggle rolled back",
			"accommodation_id", accommodationID,
			"was_favorite", wasFavorite,
			"error", err.Error(),
		)
		return Status{AccommodationID: accommodationID, IsFavorite: wasFavorite}, err
	}

	tx.Commit()
	return Status{AccommodationID: accommodationID, IsFavorite: !wasFavorite}, nil
}

func (t *Toggler) add(ctx context.Context, api API, tx *Tx, accommodationID int64) error {
	fav, err := api.AddFavorite(ctx, stayapi.FavoriteRequest{
		Type:            stayapi.FavoriteTypeAccommodation,
		AccommodationID: accommodationID,
	})
	if err != nil {
		return err
	}
	if fav != nil {
		tx.Set(true, fav.ID)
	}
	return nil
}

// remove resolves the favorite id from a fresh listing before deleting.
func (t *Toggler) remove(ctx context.Context, api API, tx *Tx, accommodationID int64) error {
	favorites, err := api.ListFavorites(ctx, stayapi.FavoriteTypeAccommodation)
	if err != nil {
		return err
	}

	for _, f := range favorites {
		if f.AccommodationID == accommodationID {
			return api.RemoveFavorite(ctx, f.ID)
		}
	}
	// already gone on the API side
	return nil
}
