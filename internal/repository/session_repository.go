package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/exitprep/exitprep-backend/internal/model"
)

// SessionRepository handles persisted exam session data access. Sessions are
// written once, at submission, as already-completed rows; in-progress rows
// (null completed_at) can still exist in older data and are read back as-is.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// InsertCompleted writes a completed session row and fills in its generated
// id.
func (r *SessionRepository) InsertCompleted(ctx context.Context, s *model.UserSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO user_sessions (user_id, exam_id, score, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		s.UserID, s.ExamID, s.Score, s.StartedAt, s.CompletedAt,
	).Scan(&s.ID)
}

// GetByID retrieves one session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.UserSession, error) {
	s := &model.UserSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, exam_id, score, started_at, completed_at
		 FROM user_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.UserID, &s.ExamID, &s.Score, &s.StartedAt, &s.CompletedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListByUser retrieves all of a user's sessions, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.UserSession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, exam_id, score, started_at, completed_at
		 FROM user_sessions
		 WHERE user_id = $1
		 ORDER BY started_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.UserSession
	for rows.Next() {
		var s model.UserSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.ExamID, &s.Score,
			&s.StartedAt, &s.CompletedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// LatestCompletedByUserAndExam retrieves the most recent completed session
// for one (user, exam) pair. Returns pgx.ErrNoRows when none exists.
func (r *SessionRepository) LatestCompletedByUserAndExam(ctx context.Context, userID, examID uuid.UUID) (*model.UserSession, error) {
	s := &model.UserSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, exam_id, score, started_at, completed_at
		 FROM user_sessions
		 WHERE user_id = $1 AND exam_id = $2 AND completed_at IS NOT NULL
		 ORDER BY completed_at DESC
		 LIMIT 1`, userID, examID,
	).Scan(&s.ID, &s.UserID, &s.ExamID, &s.Score, &s.StartedAt, &s.CompletedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
