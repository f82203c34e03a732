package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bou-cse/routines-api/internal/models"
)

// TermRepository handles persistence for academic terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository instantiates a term repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

const termColumns = `id, name, full_name, session, study_center, contact_person, contact_designation, contact_phone, contact_email, start_date, end_date, lunch_break_start, lunch_break_end, holidays, makeup_dates, theory_class_duration_minutes, lab_class_duration_minutes, display_order, created_at, updated_at`

// List returns terms ordered for the term dropdown.
func (r *TermRepository) List(ctx context.Context, filter models.TermFilter) ([]models.Term, int, error) {
	base := "FROM terms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR full_name ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "start_date": true, "display_order": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "display_order"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", termColumns, base, sortBy, order, size, offset)
	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list terms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count terms: %w", err)
	}
	return terms, total, nil
}

// FindByID loads a term by identifier.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	query := fmt.Sprintf("SELECT %s FROM terms WHERE id = $1", termColumns)
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// Create inserts a new term record.
func (r *TermRepository) Create(ctx context.Context, term *models.Term) error {
	if term.ID == "" {
		term.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if term.CreatedAt.IsZero() {
		term.CreatedAt = now
	}
	term.UpdatedAt = now

	const query = `INSERT INTO terms (id, name, full_name, session, study_center, contact_person, contact_designation, contact_phone, contact_email, start_date, end_date, lunch_break_start, lunch_break_end, holidays, makeup_dates, theory_class_duration_minutes, lab_class_duration_minutes, display_order, created_at, updated_at) VALUES (:id, :name, :full_name, :session, :study_center, :contact_person, :contact_designation, :contact_phone, :contact_email, :start_date, :end_date, :lunch_break_start, :lunch_break_end, :holidays, :makeup_dates, :theory_class_duration_minutes, :lab_class_duration_minutes, :display_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("create term: %w", err)
	}
	return nil
}

// Update modifies an existing term.
func (r *TermRepository) Update(ctx context.Context, term *models.Term) error {
	term.UpdatedAt = time.Now().UTC()
	const query = `UPDATE terms SET name = :name, full_name = :full_name, session = :session, study_center = :study_center, contact_person = :contact_person, contact_designation = :contact_designation, contact_phone = :contact_phone, contact_email = :contact_email, start_date = :start_date, end_date = :end_date, lunch_break_start = :lunch_break_start, lunch_break_end = :lunch_break_end, holidays = :holidays, makeup_dates = :makeup_dates, theory_class_duration_minutes = :theory_class_duration_minutes, lab_class_duration_minutes = :lab_class_duration_minutes, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("update term: %w", err)
	}
	return nil
}

// UpdateScheduleSettings persists the generation-form settings (date
// range, lunch break, holiday and makeup lists) onto the term.
func (r *TermRepository) UpdateScheduleSettings(ctx context.Context, term *models.Term) error {
	term.UpdatedAt = time.Now().UTC()
	const query = `UPDATE terms SET start_date = :start_date, end_date = :end_date, lunch_break_start = :lunch_break_start, lunch_break_end = :lunch_break_end, holidays = :holidays, makeup_dates = :makeup_dates, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, term); err != nil {
		return fmt.Errorf("update term schedule settings: %w", err)
	}
	return nil
}

// Delete removes a term permanently.
func (r *TermRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM terms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete term: %w", err)
	}
	return nil
}
