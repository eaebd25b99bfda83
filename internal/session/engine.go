// Package session holds the live state of exam attempts: the Engine state
// machine, the Attempt wrapper that serializes access and drives the
// countdown, and the Registry of attempts currently in memory.
package session

import (
	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/model"
	"github.com/exitprep/exitprep-backend/internal/scoring"
)

// CheckResult is the stored outcome of a check-answer action. The verdict
// survives hiding the feedback panel and later answer changes.
type CheckResult struct {
	IsCorrect  bool `json:"is_correct"`
	ShowResult bool `json:"show_result"`
}

// State is a read-only projection of the engine, safe to hand to callers.
type State struct {
	ExamID         uuid.UUID                           `json:"exam_id"`
	Title          string                              `json:"title"`
	SessionID      *uuid.UUID                          `json:"session_id,omitempty"`
	CurrentIndex   int                                 `json:"current_index"`
	QuestionCount  int                                 `json:"question_count"`
	Answers        map[uuid.UUID]string                `json:"answers"`
	Confidences    map[uuid.UUID]model.ConfidenceLevel `json:"confidences"`
	Flags          []uuid.UUID                         `json:"flags"`
	Strikethroughs map[uuid.UUID][]string              `json:"strikethroughs"`
	Results        map[uuid.UUID]CheckResult           `json:"results"`
	TimeRemaining  int                                 `json:"time_remaining"`
	IsRunning      bool                                `json:"is_running"`
	IsSubmitted    bool                                `json:"is_submitted"`
}

// Engine is the in-memory state machine for one exam attempt. It performs no
// I/O and is not safe for concurrent use; the Attempt wrapper serializes
// access. Harmless invalid inputs (out-of-range indexes, unknown question
// ids) are no-ops, never errors.
type Engine struct {
	examID    uuid.UUID
	title     string
	questions []model.Question
	byID      map[uuid.UUID]int

	sessionID      *uuid.UUID
	currentIndex   int
	answers        map[uuid.UUID]string
	confidences    map[uuid.UUID]model.ConfidenceLevel
	flags          map[uuid.UUID]struct{}
	strikethroughs map[uuid.UUID]map[string]struct{}
	results        map[uuid.UUID]CheckResult
	timeRemaining  int
	isRunning      bool
	isSubmitted    bool
}

// NewEngine returns an engine in the empty reset shape; call InitExam to arm
// it.
func NewEngine() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

// InitExam fully resets the engine and arms a fresh attempt: cursor at the
// first question, all maps empty, timer at the full limit and running. Used
// for fresh starts and explicit retakes alike; prior state never survives.
func (e *Engine) InitExam(examID uuid.UUID, title string, questions []model.Question, timeLimitMinutes int) {
	e.Reset()
	e.examID = examID
	e.title = title
	e.questions = questions
	e.byID = make(map[uuid.UUID]int, len(questions))
	for i, q := range questions {
		e.byID[q.ID] = i
	}
	e.timeRemaining = timeLimitMinutes * 60
	e.isRunning = true
}

// Reset returns the engine to the all-empty shape with no questions loaded.
func (e *Engine) Reset() {
	e.examID = uuid.Nil
	e.title = ""
	e.questions = nil
	e.byID = nil
	e.sessionID = nil
	e.currentIndex = 0
	e.answers = make(map[uuid.UUID]string)
	e.confidences = make(map[uuid.UUID]model.ConfidenceLevel)
	e.flags = make(map[uuid.UUID]struct{})
	e.strikethroughs = make(map[uuid.UUID]map[string]struct{})
	e.results = make(map[uuid.UUID]CheckResult)
	e.timeRemaining = 0
	e.isRunning = false
	e.isSubmitted = false
}

// SetSessionID associates the live attempt with a persisted session row.
func (e *Engine) SetSessionID(id uuid.UUID) {
	e.sessionID = &id
}

// LoadSavedAnswers replaces the answer and confidence maps wholesale and puts
// the engine in review mode (not running, submitted). A resumed attempt is
// never re-armed as a live timer.
func (e *Engine) LoadSavedAnswers(answers map[uuid.UUID]string, confidences map[uuid.UUID]model.ConfidenceLevel) {
	e.answers = make(map[uuid.UUID]string, len(answers))
	for k, v := range answers {
		e.answers[k] = v
	}
	e.confidences = make(map[uuid.UUID]model.ConfidenceLevel, len(confidences))
	for k, v := range confidences {
		e.confidences[k] = v
	}
	e.isRunning = false
	e.isSubmitted = true
}

// GoToQuestion moves the cursor to an absolute index; out-of-range indexes
// are ignored.
func (e *Engine) GoToQuestion(i int) {
	if i < 0 || i >= len(e.questions) {
		return
	}
	e.currentIndex = i
}

// NextQuestion advances the cursor, clamped at the last question.
func (e *Engine) NextQuestion() {
	if e.currentIndex < len(e.questions)-1 {
		e.currentIndex++
	}
}

// PrevQuestion moves the cursor back, clamped at the first question.
func (e *Engine) PrevQuestion() {
	if e.currentIndex > 0 {
		e.currentIndex--
	}
}

// SelectAnswer overwrites any prior selection for the question. The option is
// not validated against the question's labels, and an earlier check verdict
// is not invalidated. No-op once submitted.
func (e *Engine) SelectAnswer(questionID uuid.UUID, option string) {
	if e.isSubmitted {
		return
	}
	e.answers[questionID] = option
}

// SetConfidence overwrites the confidence tag for the question. Invalid
// levels and post-submit calls are ignored.
func (e *Engine) SetConfidence(questionID uuid.UUID, level model.ConfidenceLevel) {
	if e.isSubmitted || !level.Valid() {
		return
	}
	e.confidences[questionID] = level
}

// ToggleFlag toggles the question's revisit marker.
func (e *Engine) ToggleFlag(questionID uuid.UUID) {
	if e.isSubmitted {
		return
	}
	if _, ok := e.flags[questionID]; ok {
		delete(e.flags, questionID)
		return
	}
	e.flags[questionID] = struct{}{}
}

// ToggleStrikethrough toggles elimination of one option on one question.
// Independent of the current selection.
func (e *Engine) ToggleStrikethrough(questionID uuid.UUID, option string) {
	if e.isSubmitted {
		return
	}
	set := e.strikethroughs[questionID]
	if set == nil {
		set = make(map[string]struct{})
		e.strikethroughs[questionID] = set
	}
	if _, ok := set[option]; ok {
		delete(set, option)
		if len(set) == 0 {
			delete(e.strikethroughs, questionID)
		}
		return
	}
	set[option] = struct{}{}
}

// CheckAnswer computes and records the correctness verdict for the question's
// current selection, tolerating correct_answer stored as a label or as option
// text. Returns false without recording anything when the question is
// unanswered or unknown. After submission the stored verdict, if any, is
// returned unchanged.
func (e *Engine) CheckAnswer(questionID uuid.UUID) bool {
	if e.isSubmitted {
		return e.results[questionID].IsCorrect
	}
	idx, ok := e.byID[questionID]
	if !ok {
		return false
	}
	selected, ok := e.answers[questionID]
	if !ok || selected == "" {
		return false
	}
	verdict := scoring.IsSelectionCorrect(e.questions[idx], selected)
	e.results[questionID] = CheckResult{IsCorrect: verdict, ShowResult: true}
	return verdict
}

// HideResult collapses the feedback panel for a checked question without
// discarding the verdict.
func (e *Engine) HideResult(questionID uuid.UUID) {
	r, ok := e.results[questionID]
	if !ok {
		return
	}
	r.ShowResult = false
	e.results[questionID] = r
}

// Tick advances the countdown by one second. It clamps at zero and flips
// isRunning false exactly once, reporting true on that flip so the caller can
// run the persist-then-submit sequence. Ticks while not running are no-ops.
func (e *Engine) Tick() (expired bool) {
	if !e.isRunning {
		return false
	}
	if e.timeRemaining > 0 {
		e.timeRemaining--
	}
	if e.timeRemaining == 0 {
		e.isRunning = false
		return true
	}
	return false
}

// SubmitExam flips the engine to its terminal submitted state. Idempotent;
// persistence is the caller's responsibility and must be initiated before or
// alongside this call.
func (e *Engine) SubmitExam() {
	e.isSubmitted = true
	e.isRunning = false
}

// Snapshot returns a deep-copied read-only projection of the engine state.
func (e *Engine) Snapshot() State {
	s := State{
		ExamID:         e.examID,
		Title:          e.title,
		CurrentIndex:   e.currentIndex,
		QuestionCount:  len(e.questions),
		Answers:        make(map[uuid.UUID]string, len(e.answers)),
		Confidences:    make(map[uuid.UUID]model.ConfidenceLevel, len(e.confidences)),
		Flags:          make([]uuid.UUID, 0, len(e.flags)),
		Strikethroughs: make(map[uuid.UUID][]string, len(e.strikethroughs)),
		Results:        make(map[uuid.UUID]CheckResult, len(e.results)),
		TimeRemaining:  e.timeRemaining,
		IsRunning:      e.isRunning,
		IsSubmitted:    e.isSubmitted,
	}
	if e.sessionID != nil {
		id := *e.sessionID
		s.SessionID = &id
	}
	for k, v := range e.answers {
		s.Answers[k] = v
	}
	for k, v := range e.confidences {
		s.Confidences[k] = v
	}
	for k := range e.flags {
		s.Flags = append(s.Flags, k)
	}
	for k, set := range e.strikethroughs {
		opts := make([]string, 0, len(set))
		for opt := range set {
			opts = append(opts, opt)
		}
		s.Strikethroughs[k] = opts
	}
	for k, v := range e.results {
		s.Results[k] = v
	}
	return s
}

// ExamID returns the exam this attempt runs against.
func (e *Engine) ExamID() uuid.UUID { return e.examID }

// SessionID returns the persisted session row id, if one is associated.
func (e *Engine) SessionID() *uuid.UUID { return e.sessionID }

// Questions returns the loaded question set. Callers must not mutate it.
func (e *Engine) Questions() []model.Question { return e.questions }

// Answers returns a copy of the selection map.
func (e *Engine) Answers() map[uuid.UUID]string {
	out := make(map[uuid.UUID]string, len(e.answers))
	for k, v := range e.answers {
		out[k] = v
	}
	return out
}

// Confidences returns a copy of the confidence map.
func (e *Engine) Confidences() map[uuid.UUID]model.ConfidenceLevel {
	out := make(map[uuid.UUID]model.ConfidenceLevel, len(e.confidences))
	for k, v := range e.confidences {
		out[k] = v
	}
	return out
}

// CurrentIndex returns the navigation cursor.
func (e *Engine) CurrentIndex() int { return e.currentIndex }

// TimeRemaining returns the countdown value in seconds.
func (e *Engine) TimeRemaining() int { return e.timeRemaining }

// IsRunning reports whether the countdown is live.
func (e *Engine) IsRunning() bool { return e.isRunning }

// IsSubmitted reports whether the attempt reached its terminal state.
func (e *Engine) IsSubmitted() bool { return e.isSubmitted }
