package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/exitprep/exitprep-backend/internal/config"
	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/repository"
)

// Domain errors.
var (
	ErrExamNotFound = errors.New("exam not found")
	ErrNoQuestions  = errors.New("exam has no questions")
)

// examPayloadTTL bounds staleness if an exam is ever re-seeded in place.
const examPayloadTTL = 24 * time.Hour

// ExamService serves the exam catalog and the Redis-cached exam payload.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// List returns all exams, newest first.
func (s *ExamService) List(ctx context.Context) ([]model.Exam, error) {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	return exams, nil
}

// GetByID retrieves a single exam.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// GetExamPayload returns the full paper for one exam, from Redis when cached,
// warming the cache on a miss. Explanations and the answer key ship with the
// payload: immediate feedback is the product.
func (s *ExamService) GetExamPayload(ctx context.Context, examID uuid.UUID) (*model.ExamPayload, error) {
	key := config.CacheKey.ExamPayloadKey(examID)
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var payload model.ExamPayload
		if err := json.Unmarshal(data, &payload); err == nil {
			return &payload, nil
		}
		s.log.Warn().Str("exam_id", examID.String()).Msg("corrupt cached payload, rebuilding")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("payload cache read failed, falling back to database")
	}

	exam, err := s.GetByID(ctx, examID)
	if err != nil {
		return nil, err
	}
	return s.WarmExamCache(ctx, exam)
}

// WarmExamCache loads an exam's questions from PostgreSQL and caches the
// assembled payload in Redis.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) (*model.ExamPayload, error) {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	payload := &model.ExamPayload{
		ExamID:           exam.ID,
		Title:            exam.Title,
		Subject:          exam.Subject,
		TimeLimitMinutes: exam.TimeLimitMinutes,
		Questions:        questions,
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	key := config.CacheKey.ExamPayloadKey(exam.ID)
	if err := s.rdb.Set(ctx, key, payloadJSON, examPayloadTTL).Err(); err != nil {
		// Cache failure is not fatal; the payload was built from the database.
		s.log.Warn().Err(err).Str("exam_id", exam.ID.String()).Msg("failed to cache payload")
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return payload, nil
}

// PrewarmAllCaches loads every exam's payload into Redis on startup so first
// requests never pay the database round trip.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list exams: %w", err)
	}
	if len(exams) == 0 {
		s.log.Info().Msg("No exams to prewarm")
		return nil
	}

	warmed := 0
	for i := range exams {
		if _, err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}
