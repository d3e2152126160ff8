package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
)

const DefaultIdleTTL = 30 * time.Minute

type entry struct {
	form     *Form
	owner    string
	lastSeen time.Time
}

// Registry keeps the open forms of all sessions.
type Registry struct {
	mu      sync.Mutex
	forms   map[uuid.UUID]*entry
	idleTTL time.Duration
	now     func() time.Time
}

// NewRegistry creates an empty registry. Forms untouched for idleTTL are
// dropped by Sweep.
func NewRegistry(idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		forms:   make(map[uuid.UUID]*entry),
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Open registers a form owned by the given session key.
func (r *Registry) Open(owner string, form *Form) uuid.UUID {
	id := uuid.New()

	r.mu.Lock()
	r.forms[id] = &entry{form: form, owner: owner, lastSeen: r.now()}
	r.mu.Unlock()

	return id
}

// Get returns the form if it exists and belongs to owner.
func (r *Registry) Get(owner string, id uuid.UUID) (*Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.forms[id]
	if !ok || e.owner != owner {
		return nil, ErrFormNotFound
	}
	e.lastSeen = r.now()
	return e.form, nil
}

// Close removes the form. Closing another session's form is reported as not found.
func (r *Registry) Close(owner string, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.forms[id]
	if !ok || e.owner != owner {
		return ErrFormNotFound
	}
	delete(r.forms, id)
	return nil
}

// Len returns the number of open forms.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// Sweep drops idle forms. Forms with a submission in flight are kept.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.forms {
		if e.lastSeen.After(cutoff) {
			continue
		}
		if e.form.State() == StateSubmitting {
			continue
		}
		delete(r.forms, id)
		removed++
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTTL / 2
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
			if n := r.Sweep(); n > 0 {
				logger.LogDebug(ctx, "Swept idle reservation forms", "removed", n, "open", r.Len())
			}
		}
	}
}
