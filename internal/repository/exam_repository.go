package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exitprep/exitprep-backend/internal/model"
)

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, subject, total_questions, time_limit_minutes, created_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.Subject, &e.TotalQuestions, &e.TimeLimitMinutes, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns all exams, newest first.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, subject, total_questions, time_limit_minutes, created_at
		 FROM exams
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		var e model.Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Subject, &e.TotalQuestions,
			&e.TimeLimitMinutes, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// Create inserts a new exam. Used by the seeder.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, subject, total_questions, time_limit_minutes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		e.Title, e.Subject, e.TotalQuestions, e.TimeLimitMinutes,
	).Scan(&e.ID, &e.CreatedAt)
}
