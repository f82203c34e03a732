package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bou-cse/routines-api/internal/models"
)

// UserRepository handles persistence for admin accounts and login logs.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository instantiates a user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail loads a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, active, last_login, created_at, updated_at FROM users WHERE LOWER(email) = LOWER($1)`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, password_hash, full_name, active, last_login, created_at, updated_at FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin stamps the most recent successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2, updated_at = $2 WHERE id = $1`, id, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// CreateLoginLog records a successful sign-in and prunes the log so only
// the newest retained rows survive.
func (r *UserRepository) CreateLoginLog(ctx context.Context, log *models.LoginLog, retain int) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.LoginTime.IsZero() {
		log.LoginTime = time.Now().UTC()
	}

	const insert = `INSERT INTO login_logs (id, user_id, login_time, ip_address, user_agent) VALUES (:id, :user_id, :login_time, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, insert, log); err != nil {
		return fmt.Errorf("create login log: %w", err)
	}

	if retain > 0 {
		const prune = `DELETE FROM login_logs WHERE id NOT IN (SELECT id FROM login_logs ORDER BY login_time DESC LIMIT $1)`
		if _, err := r.db.ExecContext(ctx, prune, retain); err != nil {
			return fmt.Errorf("prune login logs: %w", err)
		}
	}
	return nil
}
