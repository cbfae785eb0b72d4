package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jaseeljazc/campuss-atd/internal/models"
)

const userColumns = `id, email, password_hash, full_name, role, roll_number, semester, department, active, last_login_at, created_at, updated_at`

// UserRepository provides database access for accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1 LIMIT 1`, userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// ListStudents returns active student accounts, optionally filtered by
// semester, ordered by roll number.
func (r *UserRepository) ListStudents(ctx context.Context, semester *int) ([]models.User, error) {
	var (
		students []models.User
		err      error
	)
	if semester != nil {
		query := fmt.Sprintf(`SELECT %s FROM users WHERE role = 'student' AND active = TRUE AND semester = $1 ORDER BY roll_number ASC`, userColumns)
		err = r.db.SelectContext(ctx, &students, query, *semester)
	} else {
		query := fmt.Sprintf(`SELECT %s FROM users WHERE role = 'student' AND active = TRUE ORDER BY semester ASC, roll_number ASC`, userColumns)
		err = r.db.SelectContext(ctx, &students, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// CountStudentsByIDs counts how many of the given IDs belong to active
// students of the semester. Used to validate roster membership on marking.
func (r *UserRepository) CountStudentsByIDs(ctx context.Context, semester int, ids []string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role = 'student' AND active = TRUE AND semester = $1 AND id = ANY($2)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, semester, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("count students by ids: %w", err)
	}
	return count, nil
}

// UpdateLastLogin updates the last_login_at timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	const query = `UPDATE users SET last_login_at = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}
