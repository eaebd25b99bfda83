package session

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func newIdleAttempt(t *testing.T) *Attempt {
	t.Helper()
	e := NewEngine()
	e.InitExam(uuid.New(), "Practice Exam", twoQuestions(), 1)
	return NewAttempt(nil, e, zerolog.Nop())
}

func TestRegistry_PutGetRemove(t *testing.T) {
	r := NewRegistry(time.Hour, zerolog.Nop())
	a := newIdleAttempt(t)

	r.Put(a)
	if got, ok := r.Get(a.ID); !ok || got != a {
		t.Fatal("expected to get the stored attempt")
	}
	if r.Len() != 1 {
		t.Fatalf("expected len 1, got %d", r.Len())
	}

	r.Remove(a.ID)
	if _, ok := r.Get(a.ID); ok {
		t.Fatal("expected attempt removed")
	}
	r.Remove(a.ID) // unknown id is a no-op
}

func TestRegistry_EvictsIdleAttempts(t *testing.T) {
	r := NewRegistry(time.Millisecond, zerolog.Nop())
	stale := newIdleAttempt(t)
	fresh := newIdleAttempt(t)
	r.Put(stale)
	r.Put(fresh)

	time.Sleep(5 * time.Millisecond)
	fresh.Do(func(*Engine) {}) // refreshes the idle clock
	r.evictIdle()

	if _, ok := r.Get(stale.ID); ok {
		t.Fatal("expected stale attempt evicted")
	}
	if _, ok := r.Get(fresh.ID); !ok {
		t.Fatal("expected fresh attempt kept")
	}
}

func TestAttempt_FinalizeRunsOnce(t *testing.T) {
	a := newIdleAttempt(t)

	var mu sync.Mutex
	runs := 0
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Finalize(func() {
				mu.Lock()
				runs++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()

	if runs != 1 {
		t.Fatalf("expected finalize to run once, ran %d times", runs)
	}
}
