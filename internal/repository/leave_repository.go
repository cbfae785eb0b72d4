package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jaseeljazc/campuss-atd/internal/models"
)

// LeaveRepository handles persistence for class and college leave days.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// IsUniqueViolation reports whether the error is a Postgres unique-constraint
// violation. Used to map insert races onto the same conflict as the
// check-then-insert path.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// CreateClassLeave inserts a class-leave day.
func (r *LeaveRepository) CreateClassLeave(ctx context.Context, leave *models.ClassLeave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO class_leaves (id, semester, date, reason, marked_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, leave.ID, leave.Semester, leave.Date, leave.Reason, leave.MarkedBy, leave.CreatedAt); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("insert class leave: %w", err)
	}
	return nil
}

// GetClassLeave fetches the leave for (semester, date).
func (r *LeaveRepository) GetClassLeave(ctx context.Context, semester int, date models.Date) (*models.ClassLeave, error) {
	var leave models.ClassLeave
	query := `SELECT id, semester, date, reason, marked_by, created_at
FROM class_leaves WHERE semester = $1 AND date = $2`
	if err := r.db.GetContext(ctx, &leave, query, semester, date); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get class leave: %w", err)
	}
	return &leave, nil
}

// DeleteClassLeave removes the leave for (semester, date).
func (r *LeaveRepository) DeleteClassLeave(ctx context.Context, semester int, date models.Date) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM class_leaves WHERE semester = $1 AND date = $2`, semester, date)
	if err != nil {
		return fmt.Errorf("delete class leave: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete class leave: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListClassLeaves returns matching entries sorted by date descending.
func (r *LeaveRepository) ListClassLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.ClassLeave, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Semester != nil {
		where = append(where, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	query := fmt.Sprintf(`SELECT id, semester, date, reason, marked_by, created_at
FROM class_leaves WHERE %s ORDER BY date DESC`, strings.Join(where, " AND "))

	var leaves []models.ClassLeave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list class leaves: %w", err)
	}
	return leaves, nil
}

// ClassLeaveDates returns the leave dates for a semester within the range.
func (r *LeaveRepository) ClassLeaveDates(ctx context.Context, semester int, from, to *models.Date) ([]models.Date, error) {
	where := []string{"semester = $1"}
	args := []interface{}{semester}
	if from != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *to)
	}
	query := fmt.Sprintf(`SELECT date FROM class_leaves WHERE %s ORDER BY date ASC`, strings.Join(where, " AND "))

	var dates []models.Date
	if err := r.db.SelectContext(ctx, &dates, query, args...); err != nil {
		return nil, fmt.Errorf("list class leave dates: %w", err)
	}
	return dates, nil
}

// CreateCollegeLeave inserts a college-leave day. Semester is nil under the
// global scope.
func (r *LeaveRepository) CreateCollegeLeave(ctx context.Context, leave *models.CollegeLeave) error {
	if leave.ID == "" {
		leave.ID = uuid.NewString()
	}
	if leave.CreatedAt.IsZero() {
		leave.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO college_leaves (id, semester, date, reason, marked_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, leave.ID, leave.Semester, leave.Date, leave.Reason, leave.MarkedBy, leave.CreatedAt); err != nil {
		if IsUniqueViolation(err) {
			return err
		}
		return fmt.Errorf("insert college leave: %w", err)
	}
	return nil
}

// GetCollegeLeave fetches the leave for a date. A nil semester matches the
// global row; otherwise the semester-scoped row.
func (r *LeaveRepository) GetCollegeLeave(ctx context.Context, date models.Date, semester *int) (*models.CollegeLeave, error) {
	var leave models.CollegeLeave
	var err error
	if semester != nil {
		err = r.db.GetContext(ctx, &leave,
			`SELECT id, semester, date, reason, marked_by, created_at FROM college_leaves WHERE date = $1 AND semester = $2`,
			date, *semester)
	} else {
		err = r.db.GetContext(ctx, &leave,
			`SELECT id, semester, date, reason, marked_by, created_at FROM college_leaves WHERE date = $1 AND semester IS NULL`,
			date)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get college leave: %w", err)
	}
	return &leave, nil
}

// DeleteCollegeLeave removes the leave for a date under the active scope.
func (r *LeaveRepository) DeleteCollegeLeave(ctx context.Context, date models.Date, semester *int) error {
	var res sql.Result
	var err error
	if semester != nil {
		res, err = r.db.ExecContext(ctx, `DELETE FROM college_leaves WHERE date = $1 AND semester = $2`, date, *semester)
	} else {
		res, err = r.db.ExecContext(ctx, `DELETE FROM college_leaves WHERE date = $1 AND semester IS NULL`, date)
	}
	if err != nil {
		return fmt.Errorf("delete college leave: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete college leave: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCollegeLeaves returns matching entries sorted by date descending.
func (r *LeaveRepository) ListCollegeLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.CollegeLeave, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Semester != nil {
		where = append(where, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	query := fmt.Sprintf(`SELECT id, semester, date, reason, marked_by, created_at
FROM college_leaves WHERE %s ORDER BY date DESC`, strings.Join(where, " AND "))

	var leaves []models.CollegeLeave
	if err := r.db.SelectContext(ctx, &leaves, query, args...); err != nil {
		return nil, fmt.Errorf("list college leaves: %w", err)
	}
	return leaves, nil
}

// CollegeLeaveDates returns leave dates in range. Under the global scope the
// semester filter is skipped; under per-semester scope it applies.
func (r *LeaveRepository) CollegeLeaveDates(ctx context.Context, semester *int, from, to *models.Date) ([]models.Date, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if semester != nil {
		where = append(where, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, *semester)
	}
	if from != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *to)
	}
	query := fmt.Sprintf(`SELECT date FROM college_leaves WHERE %s ORDER BY date ASC`, strings.Join(where, " AND "))

	var dates []models.Date
	if err := r.db.SelectContext(ctx, &dates, query, args...); err != nil {
		return nil, fmt.Errorf("list college leave dates: %w", err)
	}
	return dates, nil
}
