package favorite

import (
	"context"
	"sync"
	"time"

	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
)

// Repository holds each session's view of its favorite accommodations.
// Values are the API favorite id; 0 marks an optimistic entry whose id is
// not known yet.
type Repository struct {
	mu      sync.Mutex
	items   map[string]map[int64]int64
	loaded  map[string]bool
	pending map[string]map[int64]bool
	seen    map[string]time.Time
	now     func() time.Time
}

// NewRepository creates an empty favorites repository.
func NewRepository() *Repository {
	return &Repository{
		items:   make(map[string]map[int64]int64),
		loaded:  make(map[string]bool),
		pending: make(map[string]map[int64]bool),
		seen:    make(map[string]time.Time),
		now:     time.Now,
	}
}

// touch marks the owner as active; must hold mu.
func (r *Repository) touch(owner string) {
	r.seen[owner] = r.now()
}

// Sweep forgets owners inactive for longer than idle. Owners with an
// update in flight are kept.
func (r *Repository) Sweep(idle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	removed := 0
	for owner, last := range r.seen {
		if last.After(cutoff) || len(r.pending[owner]) > 0 {
			continue
		}
		delete(r.items, owner)
		delete(r.loaded, owner)
		delete(r.pending, owner)
		delete(r.seen, owner)
		removed++
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (r *Repository) Run(ctx context.Context, idle time.Duration) {
	interval := idle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idle); n > 0 {
				logger.LogDebug(ctx, "Swept idle favorite sessions", "removed", n)
			}
		}
	}
}

// Loaded reports whether the owner's favorites were fetched at least once.
func (r *Repository) Loaded(owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touch(owner)
	return r.loaded[owner]
}

// Replace overwrites the owner's favorites with a fresh listing.
// Entries with a toggle in flight keep their optimistic value.
func (r *Repository) Replace(owner string, favorites map[int64]int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[int64]int64, len(favorites))
	for accID, favID := range favorites {
		next[accID] = favID
	}
	for accID := range r.pending[owner] {
		if favID, ok := r.items[owner][accID]; ok {
			next[accID] = favID
		} else {
			delete(next, accID)
		}
	}
	r.items[owner] = next
	r.loaded[owner] = true
	r.touch(owner)
}

// IsFavorite reports the current (possibly optimistic) state.
func (r *Repository) IsFavorite(owner string, accommodationID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[owner][accommodationID]
	return ok
}

// FavoriteID returns the API id of a confirmed favorite.
func (r *Repository) FavoriteID(owner string, accommodationID int64) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.items[owner][accommodationID]
	return id, ok && id != 0
}

// Begin opens an update on one accommodation of the owner. It fails with
// ErrTogglePending while another update on the same item is open.
func (r *Repository) Begin(owner string, accommodationID int64) (*Tx, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pending[owner][accommodationID] {
		return nil, ErrTogglePending
	}
	if r.pending[owner] == nil {
		r.pending[owner] = make(map[int64]bool)
	}
	r.pending[owner][accommodationID] = true
	r.touch(owner)

	return &Tx{repo: r, owner: owner, accommodationID: accommodationID}, nil
}

// Tx is an optimistic update. Changes are visible immediately and undone
// on Rollback in reverse order.
type Tx struct {
	repo            *Repository
	owner           string
	accommodationID int64
	rollbackActions []func()
	done            bool
}

// Set applies the new state for the transaction's accommodation.
func (tx *Tx) Set(favored bool, favoriteID int64) {
	r := tx.repo
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.items[tx.owner] == nil {
		r.items[tx.owner] = make(map[int64]int64)
	}
	owned := r.items[tx.owner]
	prev, had := owned[tx.accommodationID]

	if favored {
		owned[tx.accommodationID] = favoriteID
	} else {
		delete(owned, tx.accommodationID)
	}

	// Replace may swap the owner's map while the tx is open; look it up again.
	tx.rollbackActions = append(tx.rollbackActions, func() {
		current := r.items[tx.owner]
		if current == nil {
			current = make(map[int64]int64)
			r.items[tx.owner] = current
		}
		if had {
			current[tx.accommodationID] = prev
		} else {
			delete(current, tx.accommodationID)
		}
	})
}

// Commit keeps the applied changes.
func (tx *Tx) Commit() {
	tx.finish(false)
}

// Rollback undoes every change applied through the transaction.
func (tx *Tx) Rollback() {
	tx.finish(true)
}

func (tx *Tx) finish(rollback bool) {
	r := tx.repo
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.done {
		return
	}
	tx.done = true

	if rollback {
		for i := len(tx.rollbackActions) - 1; i >= 0; i-- {
			tx.rollbackActions[i]()
		}
	}
	tx.rollbackActions = nil
	delete(r.pending[tx.owner], tx.accommodationID)
}
