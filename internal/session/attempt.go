package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExpireFunc runs when the countdown reaches zero while the attempt is still
// live. It must persist the attempt's state and then flip the engine terminal
// (persist first, terminal flag second).
type ExpireFunc func(*Attempt)

// Attempt owns one Engine and serializes all access to it. While the engine
// is running, a goroutine ticks it once per second and fires the expire
// callback when time runs out; the goroutine stops as soon as the engine
// stops running or the attempt closes, so no stale timer keeps decrementing.
type Attempt struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	StartedAt time.Time

	mu         sync.Mutex
	engine     *Engine
	lastActive time.Time

	expire       ExpireFunc
	finalizeOnce sync.Once
	stop         chan struct{}
	stopOnce     sync.Once

	log zerolog.Logger
}

// NewAttempt wraps an engine. UserID is nil for guest attempts.
func NewAttempt(userID *uuid.UUID, engine *Engine, log zerolog.Logger) *Attempt {
	id := uuid.New()
	return &Attempt{
		ID:         id,
		UserID:     userID,
		StartedAt:  time.Now(),
		engine:     engine,
		lastActive: time.Now(),
		stop:       make(chan struct{}),
		log:        log.With().Str("attempt_id", id.String()).Logger(),
	}
}

// OnExpire registers the auto-submit callback. Must be set before Start.
func (a *Attempt) OnExpire(fn ExpireFunc) {
	a.expire = fn
}

// Start launches the ticker goroutine. Attempts resumed into review mode are
// never started.
func (a *Attempt) Start() {
	a.mu.Lock()
	running := a.engine.IsRunning()
	a.mu.Unlock()
	if !running {
		return
	}
	go a.run()
}

func (a *Attempt) run() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.stop:
			return
		case <-ticker.C:
			a.mu.Lock()
			expired := a.engine.Tick()
			running := a.engine.IsRunning()
			a.mu.Unlock()

			if expired {
				a.log.Info().Msg("attempt timer expired, auto-submitting")
				if a.expire != nil {
					a.expire(a)
				}
				return
			}
			if !running {
				return
			}
		}
	}
}

// Do runs fn with exclusive access to the engine and refreshes the attempt's
// idle clock.
func (a *Attempt) Do(fn func(*Engine)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastActive = time.Now()
	fn(a.engine)
}

// Snapshot returns a read-only projection of the engine state.
func (a *Attempt) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Snapshot()
}

// Finalize runs the submission sequence at most once across the user-submit
// and timer-expiry paths.
func (a *Attempt) Finalize(fn func()) {
	a.finalizeOnce.Do(fn)
}

// Close stops the ticker goroutine. Safe to call more than once.
func (a *Attempt) Close() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// LastActive reports when the attempt was last touched.
func (a *Attempt) LastActive() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActive
}
