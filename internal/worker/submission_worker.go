// Package worker holds background consumers of Redis queues.
package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exitprep/exitprep-backend/internal/config"
	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/repository"
)

// SubmissionWorker consumes the retry queue of submissions whose immediate
// durable write failed, and replays them into PostgreSQL. The user already
// saw their results when the submission was enqueued; this worker only makes
// them durable.
type SubmissionWorker struct {
	sessionRepo *repository.SessionRepository
	answerRepo  *repository.AnswerRepository
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSubmissionWorker creates a new SubmissionWorker.
func NewSubmissionWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *SubmissionWorker {
	return &SubmissionWorker{
		sessionRepo: repository.NewSessionRepository(pool),
		answerRepo:  repository.NewAnswerRepository(pool),
		rdb:         rdb,
		log:         log.With().Str("component", "submission_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *SubmissionWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *SubmissionWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.RetrySubmissionsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var sub model.Submission
	if err := json.Unmarshal([]byte(result[1]), &sub); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error, dropping item")
		return
	}

	if err := w.persist(ctx, &sub); err != nil {
		w.log.Error().Err(err).
			Str("user_id", sub.UserID.String()).
			Str("exam_id", sub.ExamID.String()).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.RetrySubmissionsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *SubmissionWorker) persist(ctx context.Context, sub *model.Submission) error {
	score := sub.Score
	row := &model.UserSession{
		UserID:      sub.UserID,
		ExamID:      sub.ExamID,
		Score:       &score,
		StartedAt:   sub.StartedAt,
		CompletedAt: &sub.CompletedAt,
	}
	if err := w.sessionRepo.InsertCompleted(ctx, row); err != nil {
		return err
	}

	answers := make([]model.UserAnswer, len(sub.Answers))
	copy(answers, sub.Answers)
	for i := range answers {
		answers[i].SessionID = row.ID
	}
	return w.answerRepo.CreateBatch(ctx, answers)
}

// drain processes all remaining items in the queue before shutdown.
func (w *SubmissionWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.RetrySubmissionsQueue).Result()
		if err != nil {
			break
		}

		var sub model.Submission
		if err := json.Unmarshal([]byte(result), &sub); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persist(ctx, &sub); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.RetrySubmissionsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
