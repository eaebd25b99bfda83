package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/model"
)

func boolPtr(b bool) *bool                                   { return &b }
func intPtr(i int) *int                                      { return &i }
func confPtr(c model.ConfidenceLevel) *model.ConfidenceLevel { return &c }

func completedSession(examID uuid.UUID, score int, total int, completedAt time.Time) (model.UserSession, []model.UserAnswer) {
	s := model.UserSession{
		ID:          uuid.New(),
		ExamID:      examID,
		Score:       intPtr(score),
		StartedAt:   completedAt.Add(-30 * time.Minute),
		CompletedAt: &completedAt,
	}
	answers := make([]model.UserAnswer, 0, total)
	for i := 0; i < total; i++ {
		answers = append(answers, model.UserAnswer{
			SessionID: s.ID,
			IsCorrect: boolPtr(i < score),
		})
	}
	return s, answers
}

func TestBestAttempts_KeepsMaximum(t *testing.T) {
	examID := uuid.New()
	base := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)

	s1, a1 := completedSession(examID, 4, 10, base)                    // 40%
	s2, a2 := completedSession(examID, 17, 20, base.Add(24*time.Hour)) // 85%
	s3, a3 := completedSession(examID, 6, 10, base.Add(48*time.Hour))  // 60%

	sessions := []model.UserSession{s1, s2, s3}
	answers := map[uuid.UUID][]model.UserAnswer{s1.ID: a1, s2.ID: a2, s3.ID: a3}
	totals := map[uuid.UUID]int{examID: 10}

	best := BestAttempts(sessions, answers, totals)
	got, ok := best[examID]
	if !ok {
		t.Fatal("expected a best attempt for the exam")
	}
	if got.Percentage != 85 {
		t.Fatalf("expected best 85, got %d", got.Percentage)
	}
	if got.SessionID != s2.ID {
		t.Fatalf("expected session %s to win, got %s", s2.ID, got.SessionID)
	}
}

func TestBestAttempts_TieKeepsExisting(t *testing.T) {
	examID := uuid.New()
	base := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)

	s1, a1 := completedSession(examID, 8, 10, base)
	s2, a2 := completedSession(examID, 8, 10, base.Add(time.Hour))

	best := BestAttempts(
		[]model.UserSession{s1, s2},
		map[uuid.UUID][]model.UserAnswer{s1.ID: a1, s2.ID: a2},
		map[uuid.UUID]int{examID: 10},
	)
	if best[examID].SessionID != s1.ID {
		t.Fatalf("expected tie to keep first attempt %s, got %s", s1.ID, best[examID].SessionID)
	}
}

func TestBestAttempts_IgnoresInProgress(t *testing.T) {
	examID := uuid.New()
	inProgress := model.UserSession{ID: uuid.New(), ExamID: examID, StartedAt: time.Now()}

	best := BestAttempts([]model.UserSession{inProgress}, nil, nil)
	if len(best) != 0 {
		t.Fatalf("expected no best attempts, got %d", len(best))
	}
}

func TestStreak(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 14, 30, 0, 0, time.UTC)
	}
	sessionsOn := func(dates ...time.Time) []model.UserSession {
		out := make([]model.UserSession, 0, len(dates))
		for _, d := range dates {
			completed := d
			out = append(out, model.UserSession{
				ID:          uuid.New(),
				ExamID:      uuid.New(),
				StartedAt:   d.Add(-time.Hour),
				CompletedAt: &completed,
			})
		}
		return out
	}

	history := sessionsOn(day(2024, 1, 10), day(2024, 1, 9), day(2024, 1, 8))

	if got := Streak(day(2024, 1, 10), history); got != 3 {
		t.Fatalf("expected streak 3 anchored at the 10th, got %d", got)
	}
	// The same history one day later: no completion today breaks the chain.
	if got := Streak(day(2024, 1, 11), history); got != 0 {
		t.Fatalf("expected streak 0 anchored at the 11th, got %d", got)
	}
	// A gap inside the history stops the count.
	gapped := sessionsOn(day(2024, 1, 10), day(2024, 1, 8))
	if got := Streak(day(2024, 1, 10), gapped); got != 1 {
		t.Fatalf("expected streak 1 with a gap on the 9th, got %d", got)
	}
	// Multiple completions on one day count once.
	doubled := sessionsOn(day(2024, 1, 10), day(2024, 1, 10), day(2024, 1, 9))
	if got := Streak(day(2024, 1, 10), doubled); got != 2 {
		t.Fatalf("expected streak 2, got %d", got)
	}
	if got := Streak(day(2024, 1, 10), nil); got != 0 {
		t.Fatalf("expected empty history streak 0, got %d", got)
	}
}

func TestConfidenceInsights(t *testing.T) {
	answers := []model.UserAnswer{
		{ConfidenceLevel: confPtr(model.ConfidenceConfident), IsCorrect: boolPtr(true)},
		{ConfidenceLevel: confPtr(model.ConfidenceConfident), IsCorrect: boolPtr(true)},
		{ConfidenceLevel: confPtr(model.ConfidenceConfident), IsCorrect: boolPtr(false)},
		{ConfidenceLevel: confPtr(model.ConfidenceGuessing), IsCorrect: boolPtr(true)},
		{ConfidenceLevel: confPtr(model.ConfidenceGuessing), IsCorrect: boolPtr(false)},
		{ConfidenceLevel: confPtr(model.ConfidenceUnsure), IsCorrect: boolPtr(false)},
		{ConfidenceLevel: confPtr(model.ConfidenceConfident), IsCorrect: nil}, // unknown verdict excluded
		{ConfidenceLevel: nil, IsCorrect: boolPtr(true)},                      // untagged excluded
	}

	got := ConfidenceInsights(answers)

	if got.Confident.Total != 3 || got.Confident.Correct != 2 {
		t.Fatalf("expected confident 2/3, got %d/%d", got.Confident.Correct, got.Confident.Total)
	}
	if got.Guessing.Total != 2 || got.Guessing.Correct != 1 {
		t.Fatalf("expected guessing 1/2, got %d/%d", got.Guessing.Correct, got.Guessing.Total)
	}
	if got.UnsureTotal != 1 {
		t.Fatalf("expected unsure total 1, got %d", got.UnsureTotal)
	}
	if got.Overconfidence != 1 {
		t.Fatalf("expected overconfidence 1, got %d", got.Overconfidence)
	}
	if acc := got.Confident.Accuracy(); acc < 0.66 || acc > 0.67 {
		t.Fatalf("expected confident accuracy ~0.667, got %f", acc)
	}
	if acc := (ConfidenceBucket{}).Accuracy(); acc != 0 {
		t.Fatalf("expected empty bucket accuracy 0, got %f", acc)
	}
}

func TestCatalogStatuses(t *testing.T) {
	attempted := model.Exam{ID: uuid.New(), Title: "NCLEX Practice 1", TotalQuestions: 10}
	untouched := model.Exam{ID: uuid.New(), Title: "NCLEX Practice 2", TotalQuestions: 10}

	base := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	s1, a1 := completedSession(attempted.ID, 4, 10, base)
	s2, a2 := completedSession(attempted.ID, 9, 10, base.Add(24*time.Hour))
	inProgress := model.UserSession{
		ID:        uuid.New(),
		ExamID:    attempted.ID,
		StartedAt: base.Add(48 * time.Hour),
	}

	statuses := CatalogStatuses(
		[]model.Exam{attempted, untouched},
		[]model.UserSession{s1, s2, inProgress},
		map[uuid.UUID][]model.UserAnswer{s1.ID: a1, s2.ID: a2},
	)

	got := statuses[attempted.ID]
	if got.AttemptsCount != 3 {
		t.Fatalf("expected 3 attempts, got %d", got.AttemptsCount)
	}
	if got.BestScore == nil || *got.BestScore != 90 {
		t.Fatalf("expected best score 90, got %v", got.BestScore)
	}
	if !got.IsCompleted || !got.IsInProgress {
		t.Fatalf("expected completed and in-progress, got %+v", got)
	}
	if got.LastAttemptAt == nil || !got.LastAttemptAt.Equal(inProgress.StartedAt) {
		t.Fatalf("expected last attempt at %v, got %v", inProgress.StartedAt, got.LastAttemptAt)
	}

	empty := statuses[untouched.ID]
	if empty.AttemptsCount != 0 || empty.BestScore != nil || empty.IsCompleted || empty.IsInProgress {
		t.Fatalf("expected untouched exam to have an empty status, got %+v", empty)
	}
}
