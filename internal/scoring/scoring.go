// Package scoring resolves per-question correctness and aggregates score
// reports. All functions are pure; persisted correctness verdicts always win
// over recomputation.
package scoring

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/model"
)

// Verdict is the outcome of resolving one question against one answer.
type Verdict int

const (
	Skipped Verdict = iota
	Correct
	Wrong
)

// AnswerRecord is the minimal answer shape the resolver needs. It covers both
// live engine selections (IsCorrect nil) and persisted rows (IsCorrect set at
// submission time).
type AnswerRecord struct {
	Selected  *string
	IsCorrect *bool
}

// TopicStats accumulates correctness per topic for competency views.
type TopicStats struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Report is the aggregate score for one attempt.
type Report struct {
	Correct    int                   `json:"correct"`
	Wrong      int                   `json:"wrong"`
	Skipped    int                   `json:"skipped"`
	Total      int                   `json:"total"`
	Percentage int                   `json:"percentage"`
	Topics     map[string]TopicStats `json:"topics"`
}

// IsSelectionCorrect compares a selected label against the question's
// correct_answer, which may be stored either as a label ("A".."D") or as the
// literal text of the correct option. The label comparison runs first; when
// the selected label resolves to option text, that text is compared next.
// Comparisons are case-insensitive. An unknown label only gets the direct
// comparison.
func IsSelectionCorrect(q model.Question, selected string) bool {
	sel := strings.ToUpper(strings.TrimSpace(selected))
	if sel == "" {
		return false
	}
	if strings.EqualFold(sel, q.CorrectAnswer) {
		return true
	}
	if text, ok := q.Options.Text(sel); ok {
		return strings.EqualFold(text, q.CorrectAnswer)
	}
	return false
}

// Resolve determines the verdict for one question. A persisted IsCorrect is
// authoritative and is never recomputed; otherwise the selection is compared
// against the question, and a missing selection counts as skipped.
func Resolve(q model.Question, rec AnswerRecord) Verdict {
	if rec.IsCorrect != nil {
		if *rec.IsCorrect {
			return Correct
		}
		return Wrong
	}
	if rec.Selected == nil || strings.TrimSpace(*rec.Selected) == "" {
		return Skipped
	}
	if IsSelectionCorrect(q, *rec.Selected) {
		return Correct
	}
	return Wrong
}

// Percentage rounds correct/total to a whole percent. Zero total yields 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// BuildReport scores a full question set against an answer map keyed by
// question id. Questions without a matching record count as skipped. Topics
// bucket under "General" when the question has no topic.
func BuildReport(questions []model.Question, answers map[uuid.UUID]AnswerRecord) Report {
	report := Report{
		Total:  len(questions),
		Topics: make(map[string]TopicStats),
	}
	for _, q := range questions {
		topic := q.Topic
		if topic == "" {
			topic = "General"
		}
		stats := report.Topics[topic]
		stats.Total++

		switch Resolve(q, answers[q.ID]) {
		case Correct:
			report.Correct++
			stats.Correct++
		case Wrong:
			report.Wrong++
		default:
			report.Skipped++
		}
		report.Topics[topic] = stats
	}
	report.Percentage = Percentage(report.Correct, report.Total)
	return report
}

// SessionPercentage computes the percentage for one completed session.
// Answer-level records with known correctness take precedence over the legacy
// raw score field; the coarse score/total ratio is used only when no such
// records exist.
func SessionPercentage(score *int, totalQuestions int, answers []model.UserAnswer) int {
	known, correct := 0, 0
	for _, a := range answers {
		if a.IsCorrect == nil {
			continue
		}
		known++
		if *a.IsCorrect {
			correct++
		}
	}
	if known > 0 {
		return Percentage(correct, known)
	}
	if score != nil {
		return Percentage(*score, totalQuestions)
	}
	return 0
}
