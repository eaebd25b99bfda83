package session

import (
	"testing"

	"github.com/google/uuid"

	"github.com/exitprep/exitprep-backend/internal/model"
)

func twoQuestions() []model.Question {
	return []model.Question{
		{
			ID:            uuid.New(),
			Options:       model.QuestionOptions{A: "aspirin", B: "ibuprofen", C: "naproxen", D: "ketorolac"},
			CorrectAnswer: "A",
		},
		{
			ID:            uuid.New(),
			Options:       model.QuestionOptions{A: "x", B: "y", C: "z", D: "w"},
			CorrectAnswer: "y",
		},
	}
}

func newTestEngine(t *testing.T, minutes int) (*Engine, []model.Question) {
	t.Helper()
	qs := twoQuestions()
	e := NewEngine()
	e.InitExam(uuid.New(), "Practice Exam", qs, minutes)
	return e, qs
}

func TestTick_MonotonicAndFlipsOnce(t *testing.T) {
	e, _ := newTestEngine(t, 1)
	if e.TimeRemaining() != 60 {
		t.Fatalf("expected 60s, got %d", e.TimeRemaining())
	}

	flips := 0
	for i := 1; i <= 60; i++ {
		if e.Tick() {
			flips++
		}
		if want := 60 - i; e.TimeRemaining() != want {
			t.Fatalf("after %d ticks expected %d, got %d", i, want, e.TimeRemaining())
		}
	}
	if flips != 1 {
		t.Fatalf("expected exactly one expiry flip, got %d", flips)
	}
	if e.IsRunning() {
		t.Fatal("expected engine stopped at zero")
	}

	// Ticks past zero are no-ops and never report expiry again.
	for i := 0; i < 10; i++ {
		if e.Tick() {
			t.Fatal("tick past zero reported expiry")
		}
	}
	if e.TimeRemaining() != 0 {
		t.Fatalf("time went negative: %d", e.TimeRemaining())
	}
}

func TestNavigation_Bounds(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	e.GoToQuestion(1)
	if e.CurrentIndex() != 1 {
		t.Fatalf("expected index 1, got %d", e.CurrentIndex())
	}
	e.GoToQuestion(2) // out of range, ignored
	e.GoToQuestion(-1)
	if e.CurrentIndex() != 1 {
		t.Fatalf("out-of-range goto moved the cursor to %d", e.CurrentIndex())
	}

	e.NextQuestion() // already at the last question
	if e.CurrentIndex() != 1 {
		t.Fatalf("next moved past the last question: %d", e.CurrentIndex())
	}
	e.PrevQuestion()
	e.PrevQuestion() // already at the first question
	if e.CurrentIndex() != 0 {
		t.Fatalf("prev moved before the first question: %d", e.CurrentIndex())
	}
}

func TestSubmit_Idempotent(t *testing.T) {
	e, _ := newTestEngine(t, 1)

	e.SubmitExam()
	first := e.Snapshot()
	e.SubmitExam()
	second := e.Snapshot()

	if !first.IsSubmitted || first.IsRunning {
		t.Fatalf("expected submitted/stopped, got %+v", first)
	}
	if first.IsSubmitted != second.IsSubmitted || first.IsRunning != second.IsRunning ||
		first.TimeRemaining != second.TimeRemaining {
		t.Fatal("second submit changed state")
	}
}

func TestSelectAndCheckAnswer(t *testing.T) {
	e, qs := newTestEngine(t, 1)
	q1, q2 := qs[0], qs[1]

	// Unanswered check records nothing.
	if e.CheckAnswer(q1.ID) {
		t.Fatal("unanswered check returned true")
	}
	if _, ok := e.Snapshot().Results[q1.ID]; ok {
		t.Fatal("unanswered check stored a result")
	}

	e.SelectAnswer(q1.ID, "B")
	if e.CheckAnswer(q1.ID) {
		t.Fatal("wrong selection checked true")
	}
	e.SelectAnswer(q1.ID, "A") // overwrite allowed even after checking
	if !e.CheckAnswer(q1.ID) {
		t.Fatal("correct label checked false")
	}

	// correct_answer stored as option text resolves through the selection's text.
	e.SelectAnswer(q2.ID, "B")
	if !e.CheckAnswer(q2.ID) {
		t.Fatal("text-form correct answer checked false")
	}

	r := e.Snapshot().Results[q1.ID]
	if !r.IsCorrect || !r.ShowResult {
		t.Fatalf("expected visible correct result, got %+v", r)
	}
	e.HideResult(q1.ID)
	r = e.Snapshot().Results[q1.ID]
	if !r.IsCorrect || r.ShowResult {
		t.Fatalf("hide discarded the verdict: %+v", r)
	}

	// Unknown question ids are harmless.
	if e.CheckAnswer(uuid.New()) {
		t.Fatal("unknown question checked true")
	}
}

func TestToggleFlagAndStrikethrough(t *testing.T) {
	e, qs := newTestEngine(t, 1)
	qid := qs[0].ID

	e.ToggleFlag(qid)
	if got := e.Snapshot().Flags; len(got) != 1 || got[0] != qid {
		t.Fatalf("expected flag set, got %v", got)
	}
	e.ToggleFlag(qid)
	if got := e.Snapshot().Flags; len(got) != 0 {
		t.Fatalf("expected flag cleared, got %v", got)
	}

	e.SelectAnswer(qid, "C")
	e.ToggleStrikethrough(qid, "C")
	snap := e.Snapshot()
	if got := snap.Strikethroughs[qid]; len(got) != 1 || got[0] != "C" {
		t.Fatalf("expected C struck, got %v", got)
	}
	// Strikethrough does not clear the selection on the same option.
	if snap.Answers[qid] != "C" {
		t.Fatalf("strikethrough cleared the selection: %v", snap.Answers[qid])
	}
	e.ToggleStrikethrough(qid, "C")
	if got := e.Snapshot().Strikethroughs[qid]; len(got) != 0 {
		t.Fatalf("expected strike cleared, got %v", got)
	}
}

func TestPostSubmitMutationsAreNoOps(t *testing.T) {
	e, qs := newTestEngine(t, 1)
	qid := qs[0].ID
	e.SelectAnswer(qid, "A")
	e.SubmitExam()

	e.SelectAnswer(qid, "B")
	e.SetConfidence(qid, model.ConfidenceConfident)
	e.ToggleFlag(qid)
	e.ToggleStrikethrough(qid, "D")
	e.Tick()

	snap := e.Snapshot()
	if snap.Answers[qid] != "A" {
		t.Fatalf("post-submit answer mutated to %s", snap.Answers[qid])
	}
	if len(snap.Confidences) != 0 || len(snap.Flags) != 0 || len(snap.Strikethroughs) != 0 {
		t.Fatalf("post-submit mutations applied: %+v", snap)
	}
	if snap.TimeRemaining != 60 {
		t.Fatalf("post-submit tick decremented to %d", snap.TimeRemaining)
	}
}

func TestLoadSavedAnswers_ReviewMode(t *testing.T) {
	e, qs := newTestEngine(t, 1)
	saved := map[uuid.UUID]string{qs[0].ID: "A"}
	confidences := map[uuid.UUID]model.ConfidenceLevel{qs[0].ID: model.ConfidenceUnsure}

	e.LoadSavedAnswers(saved, confidences)

	snap := e.Snapshot()
	if snap.IsRunning || !snap.IsSubmitted {
		t.Fatalf("expected review mode, got running=%v submitted=%v", snap.IsRunning, snap.IsSubmitted)
	}
	if snap.Answers[qs[0].ID] != "A" || snap.Confidences[qs[0].ID] != model.ConfidenceUnsure {
		t.Fatalf("saved state not loaded: %+v", snap)
	}
}

func TestReset_EmptyShape(t *testing.T) {
	e, qs := newTestEngine(t, 1)
	e.SelectAnswer(qs[0].ID, "A")
	e.SetSessionID(uuid.New())
	e.Reset()

	snap := e.Snapshot()
	if snap.QuestionCount != 0 || len(snap.Answers) != 0 || snap.SessionID != nil ||
		snap.IsRunning || snap.IsSubmitted || snap.TimeRemaining != 0 {
		t.Fatalf("reset left residual state: %+v", snap)
	}
}

func TestEndToEndScenario(t *testing.T) {
	e, qs := newTestEngine(t, 1)
	if e.TimeRemaining() != 60 {
		t.Fatalf("expected 60s limit, got %d", e.TimeRemaining())
	}

	e.SelectAnswer(qs[0].ID, "A")
	if !e.CheckAnswer(qs[0].ID) {
		t.Fatal("expected q1 selection to check correct")
	}
	e.NextQuestion()
	if e.CurrentIndex() != 1 {
		t.Fatalf("expected index 1, got %d", e.CurrentIndex())
	}

	// Drain the timer; expiry must fire exactly once even with extra ticks.
	expiries := 0
	for i := 0; i < 75; i++ {
		if e.Tick() {
			expiries++
		}
	}
	if expiries != 1 {
		t.Fatalf("expected one expiry, got %d", expiries)
	}
	if e.IsRunning() || e.TimeRemaining() != 0 {
		t.Fatalf("expected stopped at zero, got running=%v remaining=%d", e.IsRunning(), e.TimeRemaining())
	}

	// Persist-then-submit is the caller's job; after it, state is terminal.
	e.SubmitExam()
	if !e.IsSubmitted() {
		t.Fatal("expected submitted")
	}
}
