package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bou-cse/routines-api/internal/models"
)

// TemplateRepository handles the weekly template mirror used by conflict
// checks. The mirror is rewritten as part of every regeneration
// transaction.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository instantiates a template repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateDetailQuery = `SELECT rt.id, rt.term_id, rt.course_id, rt.weekday, rt.start_time, rt.end_time, rt.created_at, rt.updated_at,
	c.code AS course_code, c.name AS course_name, c.teacher_id,
	t.name AS teacher_name, t.short_name AS teacher_short_name
FROM routine_templates rt
JOIN courses c ON c.id = rt.course_id
JOIN teachers t ON t.id = c.teacher_id`

// ListByTerm returns all template rows of a term joined with course and
// teacher data.
func (r *TemplateRepository) ListByTerm(ctx context.Context, termID string) ([]models.TemplateDetail, error) {
	query := templateDetailQuery + ` WHERE rt.term_id = $1 ORDER BY rt.weekday ASC, rt.start_time ASC`
	var rows []models.TemplateDetail
	if err := r.db.SelectContext(ctx, &rows, query, termID); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return rows, nil
}

// ListByWeekdayAndTeacher returns template rows competing with a
// candidate slot: same weekday and teacher across every term, optionally
// excluding one term (the one being regenerated, whose mirror is about to
// be rewritten).
func (r *TemplateRepository) ListByWeekdayAndTeacher(ctx context.Context, weekday, teacherID, excludeTermID string) ([]models.TemplateDetail, error) {
	query := templateDetailQuery + ` WHERE rt.weekday = $1 AND c.teacher_id = $2`
	args := []interface{}{weekday, teacherID}
	if excludeTermID != "" {
		query += ` AND rt.term_id <> $3`
		args = append(args, excludeTermID)
	}
	query += ` ORDER BY rt.start_time ASC`
	var rows []models.TemplateDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list templates by teacher: %w", err)
	}
	return rows, nil
}

// DeleteByTermTx clears the term's template mirror inside the caller's
// transaction.
func (r *TemplateRepository) DeleteByTermTx(ctx context.Context, exec sqlx.ExtContext, termID string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM routine_templates WHERE term_id = $1`, termID); err != nil {
		return fmt.Errorf("delete templates: %w", err)
	}
	return nil
}

// InsertBatchTx stores template rows inside the caller's transaction.
func (r *TemplateRepository) InsertBatchTx(ctx context.Context, exec sqlx.ExtContext, rows []models.RoutineTemplate) error {
	now := time.Now().UTC()
	const insert = `INSERT INTO routine_templates (id, term_id, course_id, weekday, start_time, end_time, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range rows {
		row := &rows[i]
		if row.ID == "" {
			row.ID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		row.UpdatedAt = now
		if _, err := exec.ExecContext(ctx, insert, row.ID, row.TermID, row.CourseID, row.Weekday, row.StartTime, row.EndTime, row.CreatedAt, row.UpdatedAt); err != nil {
			return fmt.Errorf("insert template: %w", err)
		}
	}
	return nil
}
