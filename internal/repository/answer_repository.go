package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exitprep/exitprep-backend/internal/model"
)

// AnswerRepository handles persisted answer data access.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// CreateBatch inserts one answer row per question for a session in a single
// UNNEST statement. Skipped questions arrive with nil selection and nil
// correctness.
func (r *AnswerRepository) CreateBatch(ctx context.Context, answers []model.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	sessionIDs := make([]uuid.UUID, len(answers))
	questionIDs := make([]uuid.UUID, len(answers))
	selections := make([]*string, len(answers))
	confidences := make([]*string, len(answers))
	verdicts := make([]*bool, len(answers))
	for i, a := range answers {
		sessionIDs[i] = a.SessionID
		questionIDs[i] = a.QuestionID
		selections[i] = a.SelectedOption
		if a.ConfidenceLevel != nil {
			level := string(*a.ConfidenceLevel)
			confidences[i] = &level
		}
		verdicts[i] = a.IsCorrect
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_answers (session_id, question_id, selected_option, confidence_level, is_correct)
		 SELECT * FROM UNNEST($1::uuid[], $2::uuid[], $3::text[], $4::text[], $5::boolean[])`,
		sessionIDs, questionIDs, selections, confidences, verdicts)
	return err
}

// ListBySession retrieves all answers for one session.
func (r *AnswerRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.UserAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, question_id, selected_option, confidence_level, is_correct, answered_at
		 FROM user_answers
		 WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

// ListByUser retrieves every answer across all of a user's sessions. Feeds
// the dashboard aggregations.
func (r *AnswerRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.UserAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ua.id, ua.session_id, ua.question_id, ua.selected_option,
		        ua.confidence_level, ua.is_correct, ua.answered_at
		 FROM user_answers ua
		 JOIN user_sessions us ON ua.session_id = us.id
		 WHERE us.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

func scanAnswers(rows pgx.Rows) ([]model.UserAnswer, error) {
	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SelectedOption,
			&a.ConfidenceLevel, &a.IsCorrect, &a.AnsweredAt); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
