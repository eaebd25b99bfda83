package service

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exitprep/exitprep-backend/internal/config"
	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/repository"
	"github.com/exitprep/exitprep-backend/internal/session"
)

// captureHook intercepts redis commands before they reach the wire, so the
// retry enqueue can be observed without a server. Commands succeed silently.
type captureHook struct {
	mu   sync.Mutex
	cmds []redis.Cmder
}

func (h *captureHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *captureHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.mu.Lock()
		h.cmds = append(h.cmds, cmd)
		h.mu.Unlock()
		return nil
	}
}

func (h *captureHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		return nil
	}
}

func (h *captureHook) captured() []redis.Cmder {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]redis.Cmder(nil), h.cmds...)
}

// deadPool returns a lazily-connecting pool aimed at a closed port, so the
// first query fails with a connection error.
func deadPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	pool, err := pgxpool.New(context.Background(), "postgres://u:p@127.0.0.1:1/none")
	if err != nil {
		t.Fatalf("pool config: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

func serviceQuestions() []model.Question {
	opts := model.QuestionOptions{A: "ampicillin", B: "warfarin", C: "heparin", D: "aspirin"}
	return []model.Question{
		{ID: uuid.New(), QuestionText: "q1", Options: opts, CorrectAnswer: "A"},
		{ID: uuid.New(), QuestionText: "q2", Options: opts, CorrectAnswer: "B"},
	}
}

func newFinalizeFixture(t *testing.T) (*AttemptService, *captureHook) {
	t.Helper()
	pool := deadPool(t)
	hook := &captureHook{}
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	rdb.AddHook(hook)
	t.Cleanup(func() { rdb.Close() })

	svc := NewAttemptService(
		nil, // exam service is unused by finalization
		repository.NewSessionRepository(pool),
		repository.NewAnswerRepository(pool),
		session.NewRegistry(time.Hour, zerolog.Nop()),
		rdb,
		zerolog.Nop(),
	)
	return svc, hook
}

func TestFinalize_PersistFailureStillReachesTerminalState(t *testing.T) {
	svc, hook := newFinalizeFixture(t)
	questions := serviceQuestions()
	examID := uuid.New()
	userID := uuid.New()

	engine := session.NewEngine()
	engine.InitExam(examID, "Pharm Practice", questions, 30)
	engine.SelectAnswer(questions[0].ID, "A")
	engine.SetConfidence(questions[0].ID, model.ConfidenceConfident)

	attempt := session.NewAttempt(&userID, engine, zerolog.Nop())
	svc.finalize(context.Background(), attempt)

	state := attempt.Snapshot()
	if !state.IsSubmitted {
		t.Fatal("expected terminal state despite persistence failure")
	}
	if state.IsRunning {
		t.Fatal("expected stopped timer after submission")
	}

	// The failed write must be parked on the retry queue with the full
	// submission intact.
	var enqueued *model.Submission
	for _, cmd := range hook.captured() {
		if cmd.Name() != "rpush" {
			continue
		}
		args := cmd.Args()
		if len(args) < 3 {
			t.Fatalf("unexpected rpush args: %v", args)
		}
		if key, _ := args[1].(string); key != config.WorkerKey.RetrySubmissionsQueue {
			t.Fatalf("expected retry queue key, got %v", args[1])
		}
		data, ok := args[2].([]byte)
		if !ok {
			t.Fatalf("expected []byte payload, got %T", args[2])
		}
		var sub model.Submission
		if err := json.Unmarshal(data, &sub); err != nil {
			t.Fatalf("unmarshal enqueued submission: %v", err)
		}
		enqueued = &sub
	}
	if enqueued == nil {
		t.Fatal("expected the submission on the retry queue")
	}
	if enqueued.UserID != userID || enqueued.ExamID != examID {
		t.Fatalf("enqueued submission keyed to %s/%s, want %s/%s",
			enqueued.UserID, enqueued.ExamID, userID, examID)
	}
	if enqueued.Score != 1 {
		t.Fatalf("expected score 1, got %d", enqueued.Score)
	}
	if len(enqueued.Answers) != len(questions) {
		t.Fatalf("expected %d answer rows (skipped included), got %d",
			len(questions), len(enqueued.Answers))
	}
}

func TestFinalize_GuestSkipsPersistence(t *testing.T) {
	svc, hook := newFinalizeFixture(t)
	questions := serviceQuestions()

	engine := session.NewEngine()
	engine.InitExam(uuid.New(), "Pharm Practice", questions, 30)
	engine.SelectAnswer(questions[0].ID, "B")

	attempt := session.NewAttempt(nil, engine, zerolog.Nop())
	svc.finalize(context.Background(), attempt)

	state := attempt.Snapshot()
	if !state.IsSubmitted {
		t.Fatal("expected terminal state for guest attempt")
	}
	if state.SessionID != nil {
		t.Fatal("guest attempts must not be tied to a persisted session")
	}
	if got := hook.captured(); len(got) != 0 {
		t.Fatalf("expected no redis traffic for a guest, got %d commands", len(got))
	}
}

func TestFinalize_SecondCallIsNoOp(t *testing.T) {
	svc, hook := newFinalizeFixture(t)
	questions := serviceQuestions()
	userID := uuid.New()

	engine := session.NewEngine()
	engine.InitExam(uuid.New(), "Pharm Practice", questions, 30)
	engine.SelectAnswer(questions[0].ID, "A")

	attempt := session.NewAttempt(&userID, engine, zerolog.Nop())
	svc.finalize(context.Background(), attempt)
	first := len(hook.captured())

	svc.finalize(context.Background(), attempt)
	if got := len(hook.captured()); got != first {
		t.Fatalf("second finalize issued %d extra commands", got-first)
	}
	if !attempt.Snapshot().IsSubmitted {
		t.Fatal("expected attempt to stay submitted")
	}
}
