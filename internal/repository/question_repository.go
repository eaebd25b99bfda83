package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exitprep/exitprep-backend/internal/model"
)

// QuestionRepository handles question data access. Options and explanations
// are JSONB columns scanned directly into their model structs.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves all questions belonging to an exam.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	// topic and difficulty are nullable; legacy rows carry NULL where newer
	// imports write ''. Both mean "unset" downstream (untagged questions land
	// in the General bucket), so they are collapsed here.
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, options, correct_answer,
		        answer_source, explanation, COALESCE(topic, ''), COALESCE(difficulty, ''), created_at
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY created_at ASC, id ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &q.Options, &q.CorrectAnswer,
			&q.AnswerSource, &q.Explanation, &q.Topic, &q.Difficulty, &q.CreatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CreateBatch inserts all questions for one exam in a single transaction.
// Used by the seeder.
func (r *QuestionRepository) CreateBatch(ctx context.Context, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range questions {
		q := &questions[i]
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (exam_id, question_text, options, correct_answer,
			                        answer_source, explanation, topic, difficulty)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at`,
			q.ExamID, q.QuestionText, q.Options, q.CorrectAnswer,
			q.AnswerSource, q.Explanation, q.Topic, q.Difficulty,
		).Scan(&q.ID, &q.CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
