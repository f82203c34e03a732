package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bou-cse/routines-api/internal/models"
)

// SessionRepository handles the dated class calendar. The table is owned
// by routine regeneration: deleted and rebuilt in one transaction.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository instantiates a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionDetailQuery = `SELECT cs.id, cs.term_id, cs.course_id, cs.weekday, cs.class_date, cs.start_time, cs.end_time, cs.created_at,
	c.code AS course_code, c.name AS course_name,
	t.name AS teacher_name, t.short_name AS teacher_short_name
FROM class_sessions cs
JOIN courses c ON c.id = cs.course_id
JOIN teachers t ON t.id = c.teacher_id`

// ListByTerm returns the term's dated sessions ordered by date and start
// time, joined with course and teacher data.
func (r *SessionRepository) ListByTerm(ctx context.Context, termID string) ([]models.SessionDetail, error) {
	query := sessionDetailQuery + ` WHERE cs.term_id = $1 ORDER BY cs.class_date ASC, cs.start_time ASC`
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, termID); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// CountByTerm returns the number of sessions generated for a term.
func (r *SessionRepository) CountByTerm(ctx context.Context, termID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM class_sessions WHERE term_id = $1`, termID); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// DeleteByTermTx clears all sessions of a term inside the caller's
// transaction.
func (r *SessionRepository) DeleteByTermTx(ctx context.Context, exec sqlx.ExtContext, termID string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM class_sessions WHERE term_id = $1`, termID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

// BulkCreateTx inserts generated sessions inside the caller's
// transaction.
func (r *SessionRepository) BulkCreateTx(ctx context.Context, exec sqlx.ExtContext, sessions []models.ClassSession) error {
	now := time.Now().UTC()
	const insert = `INSERT INTO class_sessions (id, term_id, course_id, weekday, class_date, start_time, end_time, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range sessions {
		session := &sessions[i]
		if session.ID == "" {
			session.ID = uuid.NewString()
		}
		if session.CreatedAt.IsZero() {
			session.CreatedAt = now
		}
		if _, err := exec.ExecContext(ctx, insert, session.ID, session.TermID, session.CourseID, session.Weekday, session.ClassDate, session.StartTime, session.EndTime, session.CreatedAt); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}
	return nil
}
