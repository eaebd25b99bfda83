package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry tracks the attempts currently held in memory. Nothing enforces one
// attempt per (user, exam); concurrent attempts from separate tabs are
// tolerated as independent attempts.
type Registry struct {
	mu       sync.RWMutex
	attempts map[uuid.UUID]*Attempt
	ttl      time.Duration
	log      zerolog.Logger
}

// NewRegistry builds a registry that evicts attempts idle longer than ttl.
func NewRegistry(ttl time.Duration, log zerolog.Logger) *Registry {
	return &Registry{
		attempts: make(map[uuid.UUID]*Attempt),
		ttl:      ttl,
		log:      log.With().Str("component", "attempt_registry").Logger(),
	}
}

// Put registers an attempt under its id.
func (r *Registry) Put(a *Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[a.ID] = a
}

// Get returns the attempt, or false when it is unknown or already evicted.
func (r *Registry) Get(id uuid.UUID) (*Attempt, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.attempts[id]
	return a, ok
}

// Remove closes and forgets an attempt. Unknown ids are ignored.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	a, ok := r.attempts[id]
	if ok {
		delete(r.attempts, id)
	}
	r.mu.Unlock()
	if ok {
		a.Close()
	}
}

// Len reports the number of live attempts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.attempts)
}

// Sweep evicts idle attempts every interval until ctx is done. Run it in its
// own goroutine.
func (r *Registry) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := time.Now().Add(-r.ttl)

	r.mu.Lock()
	var evicted []*Attempt
	for id, a := range r.attempts {
		if a.LastActive().Before(cutoff) {
			delete(r.attempts, id)
			evicted = append(evicted, a)
		}
	}
	r.mu.Unlock()

	for _, a := range evicted {
		a.Close()
		r.log.Info().Str("attempt_id", a.ID.String()).Msg("evicted idle attempt")
	}
}
