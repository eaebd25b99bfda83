package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuestionOptions holds the four answer choices, keyed A through D.
type QuestionOptions struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// OptionLabels enumerates the valid choice labels in display order.
var OptionLabels = []string{"A", "B", "C", "D"}

// Text returns the option text for a label ("A".."D", case-insensitive).
// The second return is false for unknown labels.
func (o QuestionOptions) Text(label string) (string, bool) {
	switch strings.ToUpper(label) {
	case "A":
		return o.A, true
	case "B":
		return o.B, true
	case "C":
		return o.C, true
	case "D":
		return o.D, true
	}
	return "", false
}

// QuestionExplanation is the study material attached to a question.
type QuestionExplanation struct {
	CoreConcept              string   `json:"core_concept"`
	CorrectAnswerExplanation string   `json:"correct_answer_explanation"`
	OptionAAnalysis          string   `json:"option_a_analysis,omitempty"`
	OptionBAnalysis          string   `json:"option_b_analysis,omitempty"`
	OptionCAnalysis          string   `json:"option_c_analysis,omitempty"`
	OptionDAnalysis          string   `json:"option_d_analysis,omitempty"`
	KeyTakeaways             []string `json:"key_takeaways,omitempty"`
}

// Question represents a single multiple-choice question. CorrectAnswer is
// either a label ("A".."D") or the literal text of the correct option — both
// forms exist in stored data and are treated as equivalent when checking.
type Question struct {
	ID            uuid.UUID            `json:"id"`
	ExamID        uuid.UUID            `json:"exam_id"`
	QuestionText  string               `json:"question_text"`
	Options       QuestionOptions      `json:"options"`
	CorrectAnswer string               `json:"correct_answer"`
	AnswerSource  string               `json:"answer_source,omitempty"`
	Explanation   *QuestionExplanation `json:"explanation,omitempty"`
	Topic         string               `json:"topic,omitempty"`
	Difficulty    string               `json:"difficulty,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}
