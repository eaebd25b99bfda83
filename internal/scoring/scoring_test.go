package scoring

import (
	"testing"

	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/model"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func sampleQuestion() model.Question {
	return model.Question{
		ID:            uuid.New(),
		Options:       model.QuestionOptions{A: "x", B: "y", C: "z", D: "w"},
		CorrectAnswer: "B",
	}
}

func TestResolve_LabelAndTextEquivalence(t *testing.T) {
	tests := []struct {
		name     string
		correct  string
		selected *string
		want     Verdict
	}{
		{name: "label match", correct: "B", selected: strPtr("B"), want: Correct},
		{name: "label match lowercase", correct: "B", selected: strPtr("b"), want: Correct},
		{name: "text form matched via option text", correct: "y", selected: strPtr("B"), want: Correct},
		{name: "text form case-insensitive", correct: "Y", selected: strPtr("B"), want: Correct},
		{name: "other label wrong", correct: "B", selected: strPtr("A"), want: Wrong},
		{name: "other label wrong against text form", correct: "y", selected: strPtr("C"), want: Wrong},
		{name: "no selection skipped", correct: "B", selected: nil, want: Skipped},
		{name: "empty selection skipped", correct: "B", selected: strPtr(""), want: Skipped},
		{name: "unknown label falls through to direct compare", correct: "E", selected: strPtr("E"), want: Correct},
		{name: "unknown label no option text no crash", correct: "B", selected: strPtr("E"), want: Wrong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := sampleQuestion()
			q.CorrectAnswer = tc.correct
			got := Resolve(q, AnswerRecord{Selected: tc.selected})
			if got != tc.want {
				t.Fatalf("expected verdict %v, got %v", tc.want, got)
			}
		})
	}
}

func TestResolve_PersistedVerdictWins(t *testing.T) {
	q := sampleQuestion()
	// Selection recomputes to true, but the persisted verdict says false.
	got := Resolve(q, AnswerRecord{Selected: strPtr("B"), IsCorrect: boolPtr(false)})
	if got != Wrong {
		t.Fatalf("expected persisted false to win, got %v", got)
	}
	// And the reverse: persisted true over a wrong selection.
	got = Resolve(q, AnswerRecord{Selected: strPtr("A"), IsCorrect: boolPtr(true)})
	if got != Correct {
		t.Fatalf("expected persisted true to win, got %v", got)
	}
	// Persisted verdict even without any selection.
	got = Resolve(q, AnswerRecord{IsCorrect: boolPtr(true)})
	if got != Correct {
		t.Fatalf("expected persisted verdict without selection, got %v", got)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		want    int
	}{
		{name: "seven of thirteen rounds to 54", correct: 7, total: 13, want: 54},
		{name: "zero total yields zero", correct: 0, total: 0, want: 0},
		{name: "all correct", correct: 10, total: 10, want: 100},
		{name: "one of three rounds to 33", correct: 1, total: 3, want: 33},
		{name: "two of three rounds to 67", correct: 2, total: 3, want: 67},
		{name: "half rounds up", correct: 1, total: 8, want: 13},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Percentage(tc.correct, tc.total); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestBuildReport_TopicBreakdown(t *testing.T) {
	q1 := sampleQuestion()
	q1.Topic = "Pharmacology"
	q2 := sampleQuestion()
	q2.Topic = "Pharmacology"
	q3 := sampleQuestion() // no topic → "General"

	answers := map[uuid.UUID]AnswerRecord{
		q1.ID: {Selected: strPtr("B")}, // correct
		q2.ID: {Selected: strPtr("A")}, // wrong
		// q3 unanswered → skipped
	}

	report := BuildReport([]model.Question{q1, q2, q3}, answers)

	if report.Correct != 1 || report.Wrong != 1 || report.Skipped != 1 {
		t.Fatalf("expected 1/1/1 correct/wrong/skipped, got %d/%d/%d",
			report.Correct, report.Wrong, report.Skipped)
	}
	if report.Correct+report.Wrong+report.Skipped != report.Total {
		t.Fatalf("counts do not sum to total %d", report.Total)
	}
	if report.Percentage != 33 {
		t.Fatalf("expected percentage 33, got %d", report.Percentage)
	}
	if got := report.Topics["Pharmacology"]; got.Correct != 1 || got.Total != 2 {
		t.Fatalf("expected Pharmacology 1/2, got %d/%d", got.Correct, got.Total)
	}
	if got := report.Topics["General"]; got.Correct != 0 || got.Total != 1 {
		t.Fatalf("expected General 0/1, got %d/%d", got.Correct, got.Total)
	}
}

func TestBuildReport_EmptyExam(t *testing.T) {
	report := BuildReport(nil, nil)
	if report.Total != 0 || report.Percentage != 0 {
		t.Fatalf("expected zero report, got total=%d percentage=%d", report.Total, report.Percentage)
	}
}

func TestSessionPercentage(t *testing.T) {
	answers := []model.UserAnswer{
		{IsCorrect: boolPtr(true)},
		{IsCorrect: boolPtr(true)},
		{IsCorrect: boolPtr(false)},
		{IsCorrect: nil}, // unknown correctness rows are excluded
	}

	// Answer-level records take precedence over the legacy score field.
	if got := SessionPercentage(intPtr(1), 10, answers); got != 67 {
		t.Fatalf("expected answer-level 67, got %d", got)
	}
	// Legacy fallback when no answer rows carry a verdict.
	if got := SessionPercentage(intPtr(4), 10, nil); got != 40 {
		t.Fatalf("expected legacy 40, got %d", got)
	}
	// Nothing known at all.
	if got := SessionPercentage(nil, 10, nil); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
