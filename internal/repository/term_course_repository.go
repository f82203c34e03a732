package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bou-cse/routines-api/internal/models"
)

// TermCourseRepository handles the course roster of each term.
type TermCourseRepository struct {
	db *sqlx.DB
}

// NewTermCourseRepository instantiates a term course repository.
func NewTermCourseRepository(db *sqlx.DB) *TermCourseRepository {
	return &TermCourseRepository{db: db}
}

const termCourseDetailQuery = `SELECT tc.id, tc.term_id, tc.course_id, tc.required_sessions, tc.created_at, tc.updated_at,
	c.code AS course_code, c.name AS course_name, c.is_lab, c.teacher_id,
	t.name AS teacher_name, t.short_name AS teacher_short_name
FROM term_courses tc
JOIN courses c ON c.id = tc.course_id
JOIN teachers t ON t.id = c.teacher_id`

// ListByTerm returns the term's course roster joined with course and
// teacher data, ordered by course code.
func (r *TermCourseRepository) ListByTerm(ctx context.Context, termID string) ([]models.TermCourseDetail, error) {
	query := termCourseDetailQuery + ` WHERE tc.term_id = $1 ORDER BY c.code ASC`
	var items []models.TermCourseDetail
	if err := r.db.SelectContext(ctx, &items, query, termID); err != nil {
		return nil, fmt.Errorf("list term courses: %w", err)
	}
	return items, nil
}

// FindByTermAndCourse loads a single roster entry.
func (r *TermCourseRepository) FindByTermAndCourse(ctx context.Context, termID, courseID string) (*models.TermCourseDetail, error) {
	query := termCourseDetailQuery + ` WHERE tc.term_id = $1 AND tc.course_id = $2`
	var item models.TermCourseDetail
	if err := r.db.GetContext(ctx, &item, query, termID, courseID); err != nil {
		return nil, err
	}
	return &item, nil
}

// ReplaceForTerm swaps the whole roster of a term in one transaction:
// existing entries are removed and the provided set inserted.
func (r *TermCourseRepository) ReplaceForTerm(ctx context.Context, termID string, entries []models.TermCourse) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace term courses: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM term_courses WHERE term_id = $1`, termID); err != nil {
		return fmt.Errorf("clear term courses: %w", err)
	}

	now := time.Now().UTC()
	const insert = `INSERT INTO term_courses (id, term_id, course_id, required_sessions, created_at, updated_at) VALUES (:id, :term_id, :course_id, :required_sessions, :created_at, :updated_at)`
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.TermID = termID
		entry.CreatedAt = now
		entry.UpdatedAt = now
		if _, err = tx.NamedExecContext(ctx, insert, entry); err != nil {
			return fmt.Errorf("insert term course: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace term courses: %w", err)
	}
	return nil
}
