package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jaseeljazc/campuss-atd/internal/models"
)

// AttendanceRepository handles persistence for period attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

type periodRecordRow struct {
	ID         string      `db:"id"`
	Semester   int         `db:"semester"`
	Date       models.Date `db:"date"`
	Period     int         `db:"period"`
	RecordedBy string      `db:"recorded_by"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

// Upsert inserts or replaces the record for (semester, date, period). Existing
// entries are removed and the new list written in the same transaction, giving
// last-writer-wins semantics for concurrent marks of the same session.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.PeriodRecord) (*models.PeriodRecord, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert period record: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := `INSERT INTO attendance_records (id, semester, date, period, recorded_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (semester, date, period)
DO UPDATE SET recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at
RETURNING id, semester, date, period, recorded_by, created_at, updated_at`
	var stored periodRecordRow
	if err := tx.GetContext(ctx, &stored, query, record.ID, record.Semester, record.Date, record.Period, record.RecordedBy, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert period record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_entries WHERE record_id = $1`, stored.ID); err != nil {
		return nil, fmt.Errorf("clear period entries: %w", err)
	}
	for _, entry := range record.Entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO attendance_entries (record_id, student_id, status) VALUES ($1, $2, $3)`,
			stored.ID, entry.StudentID, entry.Status); err != nil {
			return nil, fmt.Errorf("insert period entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert period record: %w", err)
	}
	commit = true

	return &models.PeriodRecord{
		ID:         stored.ID,
		Semester:   stored.Semester,
		Date:       stored.Date,
		Period:     stored.Period,
		RecordedBy: stored.RecordedBy,
		Entries:    record.Entries,
		CreatedAt:  stored.CreatedAt,
		UpdatedAt:  stored.UpdatedAt,
	}, nil
}

// GetByID loads a single record with its entries.
func (r *AttendanceRepository) GetByID(ctx context.Context, id string) (*models.PeriodRecord, error) {
	var row periodRecordRow
	query := `SELECT id, semester, date, period, recorded_by, created_at, updated_at
FROM attendance_records WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get period record: %w", err)
	}

	var entries []models.PeriodEntry
	if err := r.db.SelectContext(ctx, &entries,
		`SELECT student_id, status FROM attendance_entries WHERE record_id = $1 ORDER BY student_id`, id); err != nil {
		return nil, fmt.Errorf("get period entries: %w", err)
	}

	return &models.PeriodRecord{
		ID:         row.ID,
		Semester:   row.Semester,
		Date:       row.Date,
		Period:     row.Period,
		RecordedBy: row.RecordedBy,
		Entries:    entries,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

// ReplaceEntries swaps the full entries list of an existing record.
func (r *AttendanceRepository) ReplaceEntries(ctx context.Context, recordID, actor string, entries []models.PeriodEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace entries: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE attendance_records SET recorded_by = $1, updated_at = $2 WHERE id = $3`,
		actor, time.Now().UTC(), recordID)
	if err != nil {
		return fmt.Errorf("touch period record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch period record: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_entries WHERE record_id = $1`, recordID); err != nil {
		return fmt.Errorf("clear period entries: %w", err)
	}
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, `INSERT INTO attendance_entries (record_id, student_id, status) VALUES ($1, $2, $3)`,
			recordID, entry.StudentID, entry.Status); err != nil {
			return fmt.Errorf("insert period entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace entries: %w", err)
	}
	commit = true
	return nil
}

// Delete removes a record and its entries.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete period record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete period record: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type recordEntryRow struct {
	periodRecordRow
	StudentID *string             `db:"student_id"`
	Status    *models.EntryStatus `db:"status"`
}

// ListForSemester returns all records (with entries) for a semester, newest
// date first, periods ascending within a date.
func (r *AttendanceRepository) ListForSemester(ctx context.Context, semester int, filter models.AttendanceFilter) ([]models.PeriodRecord, error) {
	where := []string{"r.semester = $1"}
	args := []interface{}{semester}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("r.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("r.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	query := fmt.Sprintf(`SELECT r.id, r.semester, r.date, r.period, r.recorded_by, r.created_at, r.updated_at,
	e.student_id, e.status
FROM attendance_records r
LEFT JOIN attendance_entries e ON e.record_id = r.id
WHERE %s
ORDER BY r.date DESC, r.period ASC, e.student_id ASC`, strings.Join(where, " AND "))

	var rows []recordEntryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list semester records: %w", err)
	}
	return groupRecordRows(rows), nil
}

// ListForStudent returns the flattened marks a student appears in.
func (r *AttendanceRepository) ListForStudent(ctx context.Context, studentID string, filter models.AttendanceFilter) ([]models.StudentPeriodMark, error) {
	where := []string{"e.student_id = $1"}
	args := []interface{}{studentID}
	if filter.Semester != nil {
		where = append(where, fmt.Sprintf("r.semester = $%d", len(args)+1))
		args = append(args, *filter.Semester)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("r.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("r.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	query := fmt.Sprintf(`SELECT r.semester, r.date, r.period, e.status
FROM attendance_entries e
JOIN attendance_records r ON r.id = e.record_id
WHERE %s
ORDER BY r.date ASC, r.period ASC`, strings.Join(where, " AND "))

	var rows []models.StudentPeriodMark
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list student marks: %w", err)
	}
	return rows, nil
}

// ActiveDates returns the distinct dates a semester had any period marked.
func (r *AttendanceRepository) ActiveDates(ctx context.Context, semester int, from, to *models.Date) ([]models.Date, error) {
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
	query := fmt.Sprintf(`SELECT DISTINCT date FROM attendance_records WHERE %s ORDER BY date ASC`, strings.Join(where, " AND "))

	var dates []models.Date
	if err := r.db.SelectContext(ctx, &dates, query, args...); err != nil {
		return nil, fmt.Errorf("list active dates: %w", err)
	}
	return dates, nil
}

// DateRange returns the earliest and latest marked dates for a semester, or
// nils when nothing was marked.
func (r *AttendanceRepository) DateRange(ctx context.Context, semester int) (*models.Date, *models.Date, error) {
	row := struct {
		Min *models.Date `db:"min"`
		Max *models.Date `db:"max"`
	}{}
	query := `SELECT MIN(date) AS min, MAX(date) AS max FROM attendance_records WHERE semester = $1`
	if err := r.db.GetContext(ctx, &row, query, semester); err != nil {
		return nil, nil, fmt.Errorf("semester date range: %w", err)
	}
	return row.Min, row.Max, nil
}

// ExistsOnDate reports whether any attendance was marked on the date. A nil
// semester checks across all semesters.
func (r *AttendanceRepository) ExistsOnDate(ctx context.Context, date models.Date, semester *int) (bool, error) {
	var exists bool
	var err error
	if semester != nil {
		err = r.db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM attendance_records WHERE date = $1 AND semester = $2)`, date, *semester)
	} else {
		err = r.db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM attendance_records WHERE date = $1)`, date)
	}
	if err != nil {
		return false, fmt.Errorf("check attendance on date: %w", err)
	}
	return exists, nil
}

// PeriodCompletion counts how many times each period number was marked.
func (r *AttendanceRepository) PeriodCompletion(ctx context.Context, semester int) ([]models.PeriodCompletion, error) {
	query := `SELECT period, COUNT(*) AS count
FROM attendance_records
WHERE semester = $1
GROUP BY period
ORDER BY period ASC`
	var rows []models.PeriodCompletion
	if err := r.db.SelectContext(ctx, &rows, query, semester); err != nil {
		return nil, fmt.Errorf("period completion: %w", err)
	}
	return rows, nil
}

func groupRecordRows(rows []recordEntryRow) []models.PeriodRecord {
	records := make([]models.PeriodRecord, 0)
	index := map[string]int{}
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			records = append(records, models.PeriodRecord{
				ID:         row.ID,
				Semester:   row.Semester,
				Date:       row.Date,
				Period:     row.Period,
				RecordedBy: row.RecordedBy,
				CreatedAt:  row.CreatedAt,
				UpdatedAt:  row.UpdatedAt,
			})
			i = len(records) - 1
			index[row.ID] = i
		}
		if row.StudentID != nil && row.Status != nil {
			records[i].Entries = append(records[i].Entries, models.PeriodEntry{
				StudentID: *row.StudentID,
				Status:    *row.Status,
			})
		}
	}
	return records
}
