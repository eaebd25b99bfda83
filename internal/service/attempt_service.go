package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exitprep/exitprep-backend/internal/config"
	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/repository"
	"github.com/exitprep/exitprep-backend/internal/scoring"
	"github.com/exitprep/exitprep-backend/internal/session"
)

// Domain errors.
var (
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptNotOwned    = errors.New("attempt belongs to another user")
	ErrAttemptNotComplete = errors.New("attempt not submitted yet")
)

// AttemptService orchestrates live attempts: starting and resuming them,
// relaying engine operations, and running the persist-then-submit sequence on
// user submission or timer expiry. Guests (nil user) run entirely in memory
// with no persistence.
type AttemptService struct {
	examSvc     *ExamService
	sessionRepo *repository.SessionRepository
	answerRepo  *repository.AnswerRepository
	registry    *session.Registry
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	examSvc *ExamService,
	sessionRepo *repository.SessionRepository,
	answerRepo *repository.AnswerRepository,
	registry *session.Registry,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		examSvc:     examSvc,
		sessionRepo: sessionRepo,
		answerRepo:  answerRepo,
		registry:    registry,
		rdb:         rdb,
		log:         log.With().Str("component", "attempt_service").Logger(),
	}
}

// Start begins an attempt against an exam. Signed-in users who already have a
// completed session and did not ask for a retake get that session resumed in
// review mode; everyone else gets a fresh, live attempt. A retake always
// starts from a clean engine.
func (s *AttemptService) Start(ctx context.Context, userID *uuid.UUID, examID uuid.UUID, retake bool) (*session.Attempt, error) {
	payload, err := s.examSvc.GetExamPayload(ctx, examID)
	if err != nil {
		return nil, err
	}

	engine := session.NewEngine()
	engine.InitExam(payload.ExamID, payload.Title, payload.Questions, payload.TimeLimitMinutes)

	if userID != nil && !retake {
		prior, err := s.sessionRepo.LatestCompletedByUserAndExam(ctx, *userID, examID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("look up prior session: %w", err)
		}
		if prior != nil {
			return s.resume(ctx, userID, engine, prior)
		}
	}

	attempt := session.NewAttempt(userID, engine, s.log)
	attempt.OnExpire(func(a *session.Attempt) {
		s.finalize(context.Background(), a)
	})
	s.registry.Put(attempt)
	attempt.Start()

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("exam_id", examID.String()).
		Bool("guest", userID == nil).
		Msg("attempt started")
	return attempt, nil
}

// resume loads a prior session's answers into review mode. The timer is never
// re-armed; a resumed attempt is read-only.
func (s *AttemptService) resume(ctx context.Context, userID *uuid.UUID, engine *session.Engine, prior *model.UserSession) (*session.Attempt, error) {
	saved, err := s.answerRepo.ListBySession(ctx, prior.ID)
	if err != nil {
		return nil, fmt.Errorf("load saved answers: %w", err)
	}

	answers := make(map[uuid.UUID]string, len(saved))
	confidences := make(map[uuid.UUID]model.ConfidenceLevel, len(saved))
	for _, a := range saved {
		if a.SelectedOption != nil {
			answers[a.QuestionID] = *a.SelectedOption
		}
		if a.ConfidenceLevel != nil {
			confidences[a.QuestionID] = *a.ConfidenceLevel
		}
	}

	engine.SetSessionID(prior.ID)
	engine.LoadSavedAnswers(answers, confidences)

	attempt := session.NewAttempt(userID, engine, s.log)
	s.registry.Put(attempt)

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("session_id", prior.ID.String()).
		Msg("attempt resumed in review mode")
	return attempt, nil
}

// Get returns a live attempt, enforcing ownership for attempts that belong to
// a signed-in user.
func (s *AttemptService) Get(id uuid.UUID, userID *uuid.UUID) (*session.Attempt, error) {
	attempt, ok := s.registry.Get(id)
	if !ok {
		return nil, ErrAttemptNotFound
	}
	if attempt.UserID != nil && (userID == nil || *userID != *attempt.UserID) {
		return nil, ErrAttemptNotOwned
	}
	return attempt, nil
}

// Submit runs the persist-then-submit sequence for a user-initiated
// submission. Idempotent: a second call observes the terminal state and does
// nothing more.
func (s *AttemptService) Submit(ctx context.Context, attempt *session.Attempt) {
	s.finalize(ctx, attempt)
}

// Discard drops a live attempt without persisting anything. Partial progress
// is never autosaved.
func (s *AttemptService) Discard(id uuid.UUID) {
	s.registry.Remove(id)
}

// finalize persists the attempt (signed-in users only) and then flips the
// engine terminal. It runs at most once per attempt across the user-submit
// and timer-expiry paths; persistence failures enqueue the submission for the
// retry worker instead of blocking the terminal flip.
func (s *AttemptService) finalize(ctx context.Context, attempt *session.Attempt) {
	attempt.Finalize(func() {
		var (
			examID      uuid.UUID
			questions   []model.Question
			answers     map[uuid.UUID]string
			confidences map[uuid.UUID]model.ConfidenceLevel
			submitted   bool
		)
		attempt.Do(func(e *session.Engine) {
			examID = e.ExamID()
			questions = e.Questions()
			answers = e.Answers()
			confidences = e.Confidences()
			submitted = e.IsSubmitted()
		})
		if submitted {
			return
		}

		if attempt.UserID != nil {
			sub := buildSubmission(attempt, examID, questions, answers, confidences)
			if sessionID, err := s.persist(ctx, sub); err != nil {
				s.log.Error().Err(err).
					Str("attempt_id", attempt.ID.String()).
					Msg("submission write failed, enqueueing for retry")
				s.enqueueRetry(ctx, sub)
			} else {
				attempt.Do(func(e *session.Engine) { e.SetSessionID(sessionID) })
			}
		}

		attempt.Do(func(e *session.Engine) { e.SubmitExam() })
		s.log.Info().Str("attempt_id", attempt.ID.String()).Msg("attempt submitted")
	})
}

// buildSubmission freezes the attempt's state into a durable submission: raw
// correct count plus one answer row per question, skipped ones included with
// nil selection and nil correctness.
func buildSubmission(
	attempt *session.Attempt,
	examID uuid.UUID,
	questions []model.Question,
	answers map[uuid.UUID]string,
	confidences map[uuid.UUID]model.ConfidenceLevel,
) *model.Submission {
	records := make(map[uuid.UUID]scoring.AnswerRecord, len(answers))
	for qid, sel := range answers {
		selected := sel
		records[qid] = scoring.AnswerRecord{Selected: &selected}
	}
	report := scoring.BuildReport(questions, records)

	rows := make([]model.UserAnswer, 0, len(questions))
	for _, q := range questions {
		row := model.UserAnswer{QuestionID: q.ID}
		if sel, ok := answers[q.ID]; ok && sel != "" {
			verdict := scoring.IsSelectionCorrect(q, sel)
			upper := strings.ToUpper(sel)
			row.SelectedOption = &upper
			row.IsCorrect = &verdict
		}
		if level, ok := confidences[q.ID]; ok {
			l := level
			row.ConfidenceLevel = &l
		}
		rows = append(rows, row)
	}

	return &model.Submission{
		UserID:      *attempt.UserID,
		ExamID:      examID,
		Score:       report.Correct,
		StartedAt:   attempt.StartedAt,
		CompletedAt: time.Now(),
		Answers:     rows,
	}
}

// persist writes the completed session and its answer batch, returning the
// new session id.
func (s *AttemptService) persist(ctx context.Context, sub *model.Submission) (uuid.UUID, error) {
	score := sub.Score
	row := &model.UserSession{
		UserID:      sub.UserID,
		ExamID:      sub.ExamID,
		Score:       &score,
		StartedAt:   sub.StartedAt,
		CompletedAt: &sub.CompletedAt,
	}
	if err := s.sessionRepo.InsertCompleted(ctx, row); err != nil {
		return uuid.Nil, fmt.Errorf("insert session: %w", err)
	}

	answers := make([]model.UserAnswer, len(sub.Answers))
	copy(answers, sub.Answers)
	for i := range answers {
		answers[i].SessionID = row.ID
	}
	if err := s.answerRepo.CreateBatch(ctx, answers); err != nil {
		return uuid.Nil, fmt.Errorf("insert answers: %w", err)
	}
	return row.ID, nil
}

func (s *AttemptService) enqueueRetry(ctx context.Context, sub *model.Submission) {
	data, err := json.Marshal(sub)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal submission for retry")
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.RetrySubmissionsQueue, data).Err(); err != nil {
		s.log.Error().Err(err).Msg("enqueue submission retry")
	}
}

// Report scores a submitted attempt. Resumed attempts backed by a persisted
// session score from the stored rows, so persisted verdicts stay
// authoritative; live attempts score from the engine's selections.
func (s *AttemptService) Report(ctx context.Context, attempt *session.Attempt) (*scoring.Report, error) {
	var (
		questions []model.Question
		answers   map[uuid.UUID]string
		sessionID *uuid.UUID
		submitted bool
	)
	attempt.Do(func(e *session.Engine) {
		questions = e.Questions()
		answers = e.Answers()
		sessionID = e.SessionID()
		submitted = e.IsSubmitted()
	})
	if !submitted {
		return nil, ErrAttemptNotComplete
	}

	records := make(map[uuid.UUID]scoring.AnswerRecord, len(questions))
	if sessionID != nil {
		saved, err := s.answerRepo.ListBySession(ctx, *sessionID)
		if err != nil {
			return nil, fmt.Errorf("load saved answers: %w", err)
		}
		for _, a := range saved {
			records[a.QuestionID] = scoring.AnswerRecord{
				Selected:  a.SelectedOption,
				IsCorrect: a.IsCorrect,
			}
		}
	} else {
		for qid, sel := range answers {
			selected := sel
			records[qid] = scoring.AnswerRecord{Selected: &selected}
		}
	}

	report := scoring.BuildReport(questions, records)
	return &report, nil
}
