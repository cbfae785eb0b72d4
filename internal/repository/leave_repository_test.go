package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaseeljazc/campuss-atd/internal/models"
)

func TestLeaveRepositoryCreateClassLeave(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("INSERT INTO class_leaves").
		WithArgs(sqlmock.AnyArg(), 3, sqlmock.AnyArg(), "department seminar", "hod-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	leave := &models.ClassLeave{
		Semester: 3,
		Date:     models.NewDate(2024, time.January, 3),
		Reason:   "department seminar",
		MarkedBy: "hod-1",
	}
	require.NoError(t, repo.CreateClassLeave(context.Background(), leave))
	assert.NotEmpty(t, leave.ID)
}

func TestLeaveRepositoryCreateClassLeaveUniqueViolation(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("INSERT INTO class_leaves").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateClassLeave(context.Background(), &models.ClassLeave{
		Semester: 3,
		Date:     models.NewDate(2024, time.January, 3),
		Reason:   "department seminar",
		MarkedBy: "hod-1",
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestLeaveRepositoryDeleteClassLeaveNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectExec("DELETE FROM class_leaves").
		WithArgs(3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteClassLeave(context.Background(), 3, models.NewDate(2024, time.January, 3))
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestLeaveRepositoryGetCollegeLeaveGlobal(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	date := models.NewDate(2024, time.January, 4)
	mock.ExpectQuery("FROM college_leaves WHERE date = \\$1 AND semester IS NULL").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "semester", "date", "reason", "marked_by", "created_at"}).
			AddRow("leave-1", nil, date.Time(), "public holiday", "hod-1", time.Now()))

	leave, err := repo.GetCollegeLeave(context.Background(), date, nil)
	require.NoError(t, err)
	assert.Nil(t, leave.Semester)
	assert.Equal(t, date, leave.Date)
}

func TestLeaveRepositoryGetCollegeLeavePerSemester(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	semester := 3
	date := models.NewDate(2024, time.January, 4)
	mock.ExpectQuery("FROM college_leaves WHERE date = \\$1 AND semester = \\$2").
		WithArgs(sqlmock.AnyArg(), semester).
		WillReturnRows(sqlmock.NewRows([]string{"id", "semester", "date", "reason", "marked_by", "created_at"}).
			AddRow("leave-1", semester, date.Time(), "exam break", "hod-1", time.Now()))

	leave, err := repo.GetCollegeLeave(context.Background(), date, &semester)
	require.NoError(t, err)
	require.NotNil(t, leave.Semester)
	assert.Equal(t, 3, *leave.Semester)
}

func TestLeaveRepositoryGetClassLeaveNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	mock.ExpectQuery("FROM class_leaves").
		WithArgs(3, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetClassLeave(context.Background(), 3, models.NewDate(2024, time.January, 3))
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestLeaveRepositoryClassLeaveDates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLeaveRepository(db)

	first := models.NewDate(2024, time.January, 3)
	second := models.NewDate(2024, time.January, 10)
	mock.ExpectQuery("SELECT date FROM class_leaves").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"date"}).
			AddRow(first.Time()).
			AddRow(second.Time()))

	dates, err := repo.ClassLeaveDates(context.Background(), 3, nil, nil)
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, first, dates[0])
	assert.Equal(t, second, dates[1])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(sql.ErrNoRows))
	assert.False(t, IsUniqueViolation(nil))
}
