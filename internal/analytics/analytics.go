// Package analytics derives dashboard and catalog metrics from a user's
// persisted session and answer history. Every aggregation is a pure function
// over (sessions, answers, exams); nothing here is persisted.
package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/scoring"
)

// BestAttempt is the highest-scoring completed attempt of one exam.
type BestAttempt struct {
	SessionID   uuid.UUID `json:"session_id"`
	ExamID      uuid.UUID `json:"exam_id"`
	Percentage  int       `json:"percentage"`
	CompletedAt time.Time `json:"completed_at"`
}

// ConfidenceBucket accumulates answers sharing one confidence level.
type ConfidenceBucket struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// Accuracy returns correct/total, or 0 for an empty bucket.
func (b ConfidenceBucket) Accuracy() float64 {
	if b.Total == 0 {
		return 0
	}
	return float64(b.Correct) / float64(b.Total)
}

// Insights correlates self-reported confidence with actual correctness.
type Insights struct {
	Confident      ConfidenceBucket `json:"confident"`
	Guessing       ConfidenceBucket `json:"guessing"`
	UnsureTotal    int              `json:"unsure_total"`
	Overconfidence int              `json:"overconfidence"`
}

// ExamStatus is the per-exam summary shown in the catalog.
type ExamStatus struct {
	BestScore     *int       `json:"best_score,omitempty"`
	AttemptsCount int        `json:"attempts_count"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
	IsInProgress  bool       `json:"is_in_progress"`
}

// sessionPercentage scores one session, preferring answer-level correctness
// records over the legacy raw score field.
func sessionPercentage(s model.UserSession, totalQuestions int, answers []model.UserAnswer) int {
	return scoring.SessionPercentage(s.Score, totalQuestions, answers)
}

// BestAttempts reduces completed sessions to the best attempt per exam. A tie
// keeps the attempt already marked best; only a strictly higher percentage
// replaces it.
func BestAttempts(
	sessions []model.UserSession,
	answersBySession map[uuid.UUID][]model.UserAnswer,
	questionTotals map[uuid.UUID]int,
) map[uuid.UUID]BestAttempt {
	best := make(map[uuid.UUID]BestAttempt)
	for _, s := range sessions {
		if !s.Completed() {
			continue
		}
		pct := sessionPercentage(s, questionTotals[s.ExamID], answersBySession[s.ID])
		if existing, ok := best[s.ExamID]; ok && pct <= existing.Percentage {
			continue
		}
		best[s.ExamID] = BestAttempt{
			SessionID:   s.ID,
			ExamID:      s.ExamID,
			Percentage:  pct,
			CompletedAt: *s.CompletedAt,
		}
	}
	return best
}

// Streak counts consecutive calendar days with at least one completed
// session, anchored at today: a day without a completion today yields 0
// regardless of history. Dates are truncated to local midnight in today's
// location.
func Streak(today time.Time, sessions []model.UserSession) int {
	loc := today.Location()
	days := make(map[time.Time]struct{})
	for _, s := range sessions {
		if !s.Completed() {
			continue
		}
		days[midnight(s.CompletedAt.In(loc))] = struct{}{}
	}

	streak := 0
	for day := midnight(today); ; day = day.AddDate(0, 0, -1) {
		if _, ok := days[day]; !ok {
			break
		}
		streak++
	}
	return streak
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ConfidenceInsights buckets every answer with a known correctness verdict by
// its confidence level. Unsure tracks only volume; overconfidence is the
// count of confident answers that were wrong.
func ConfidenceInsights(answers []model.UserAnswer) Insights {
	var out Insights
	for _, a := range answers {
		if a.IsCorrect == nil || a.ConfidenceLevel == nil {
			continue
		}
		switch *a.ConfidenceLevel {
		case model.ConfidenceConfident:
			out.Confident.Total++
			if *a.IsCorrect {
				out.Confident.Correct++
			}
		case model.ConfidenceGuessing:
			out.Guessing.Total++
			if *a.IsCorrect {
				out.Guessing.Correct++
			}
		case model.ConfidenceUnsure:
			out.UnsureTotal++
		}
	}
	if over := out.Confident.Total - out.Confident.Correct; over > 0 {
		out.Overconfidence = over
	}
	return out
}

// CatalogStatuses summarizes every exam for the catalog view: best completed
// score, attempt count, most recent activity, and whether any attempt is
// still in progress.
func CatalogStatuses(
	exams []model.Exam,
	sessions []model.UserSession,
	answersBySession map[uuid.UUID][]model.UserAnswer,
) map[uuid.UUID]ExamStatus {
	statuses := make(map[uuid.UUID]ExamStatus, len(exams))
	totals := make(map[uuid.UUID]int, len(exams))
	for _, e := range exams {
		statuses[e.ID] = ExamStatus{}
		totals[e.ID] = e.TotalQuestions
	}

	for _, s := range sessions {
		status, ok := statuses[s.ExamID]
		if !ok {
			continue
		}
		status.AttemptsCount++

		last := s.StartedAt
		if s.CompletedAt != nil && s.CompletedAt.After(last) {
			last = *s.CompletedAt
		}
		if status.LastAttemptAt == nil || last.After(*status.LastAttemptAt) {
			t := last
			status.LastAttemptAt = &t
		}

		if s.Completed() {
			status.IsCompleted = true
			pct := sessionPercentage(s, totals[s.ExamID], answersBySession[s.ID])
			if status.BestScore == nil || pct > *status.BestScore {
				status.BestScore = &pct
			}
		} else {
			status.IsInProgress = true
		}
		statuses[s.ExamID] = status
	}
	return statuses
}
