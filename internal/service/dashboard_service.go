package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/exitprep/exitprep-backend/internal/analytics"
	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/repository"
)

// Dashboard is the aggregate view returned to a signed-in user.
type Dashboard struct {
	BestAttempts []analytics.BestAttempt `json:"best_attempts"`
	Streak       int                     `json:"streak"`
	Insights     analytics.Insights      `json:"insights"`
}

// CatalogEntry pairs an exam with the caller's attempt status. Status is zero
// for guests.
type CatalogEntry struct {
	Exam   model.Exam           `json:"exam"`
	Status analytics.ExamStatus `json:"status"`
}

// DashboardService reconstructs a user's practice history from persisted
// sessions and answers and reduces it to dashboard and catalog metrics.
// Nothing it computes is ever persisted.
type DashboardService struct {
	examRepo    *repository.ExamRepository
	sessionRepo *repository.SessionRepository
	answerRepo  *repository.AnswerRepository
	log         zerolog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(
	examRepo *repository.ExamRepository,
	sessionRepo *repository.SessionRepository,
	answerRepo *repository.AnswerRepository,
	log zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		examRepo:    examRepo,
		sessionRepo: sessionRepo,
		answerRepo:  answerRepo,
		log:         log.With().Str("component", "dashboard_service").Logger(),
	}
}

// GetDashboard builds the full dashboard for one user.
func (s *DashboardService) GetDashboard(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	exams, sessions, answers, err := s.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := make(map[uuid.UUID]int, len(exams))
	for _, e := range exams {
		totals[e.ID] = e.TotalQuestions
	}
	bySession := groupBySession(answers)

	best := analytics.BestAttempts(sessions, bySession, totals)
	entries := make([]analytics.BestAttempt, 0, len(best))
	for _, b := range best {
		entries = append(entries, b)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CompletedAt.After(entries[j].CompletedAt)
	})

	return &Dashboard{
		BestAttempts: entries,
		Streak:       analytics.Streak(time.Now(), sessions),
		Insights:     analytics.ConfidenceInsights(answers),
	}, nil
}

// GetCatalog lists every exam with the user's per-exam status overlay. A nil
// userID yields plain statuses with no history.
func (s *DashboardService) GetCatalog(ctx context.Context, userID *uuid.UUID) ([]CatalogEntry, error) {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	var statuses map[uuid.UUID]analytics.ExamStatus
	if userID != nil {
		sessions, err := s.sessionRepo.ListByUser(ctx, *userID)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		answers, err := s.answerRepo.ListByUser(ctx, *userID)
		if err != nil {
			return nil, fmt.Errorf("list answers: %w", err)
		}
		statuses = analytics.CatalogStatuses(exams, sessions, groupBySession(answers))
	}

	entries := make([]CatalogEntry, 0, len(exams))
	for _, e := range exams {
		entry := CatalogEntry{Exam: e}
		if statuses != nil {
			entry.Status = statuses[e.ID]
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *DashboardService) loadHistory(ctx context.Context, userID uuid.UUID) ([]model.Exam, []model.UserSession, []model.UserAnswer, error) {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list exams: %w", err)
	}
	sessions, err := s.sessionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list sessions: %w", err)
	}
	answers, err := s.answerRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list answers: %w", err)
	}
	return exams, sessions, answers, nil
}

func groupBySession(answers []model.UserAnswer) map[uuid.UUID][]model.UserAnswer {
	out := make(map[uuid.UUID][]model.UserAnswer)
	for _, a := range answers {
		out[a.SessionID] = append(out[a.SessionID], a)
	}
	return out
}
