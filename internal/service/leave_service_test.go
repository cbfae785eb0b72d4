package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

func (s *leaveRepoStub) CreateClassLeave(ctx context.Context, leave *models.ClassLeave) error {
	if s.classRows == nil {
		s.classRows = make(map[string]*models.ClassLeave)
	}
	s.classRows[leave.Date.String()] = leave
	s.createdClass = append(s.createdClass, leave)
	return nil
}

func (s *leaveRepoStub) DeleteClassLeave(ctx context.Context, semester int, date models.Date) error {
	if _, ok := s.classRows[date.String()]; !ok {
		return sql.ErrNoRows
	}
	delete(s.classRows, date.String())
	return nil
}

func (s *leaveRepoStub) ListClassLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.ClassLeave, error) {
	leaves := []models.ClassLeave{}
	for _, leave := range s.classRows {
		leaves = append(leaves, *leave)
	}
	return leaves, nil
}

func (s *leaveRepoStub) DeleteCollegeLeave(ctx context.Context, date models.Date, semester *int) error {
	if _, ok := s.collegeRows[date.String()]; !ok {
		return sql.ErrNoRows
	}
	delete(s.collegeRows, date.String())
	return nil
}

func (s *leaveRepoStub) ListCollegeLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.CollegeLeave, error) {
	s.lastCollegeFilter = filter
	leaves := []models.CollegeLeave{}
	for _, leave := range s.collegeRows {
		leaves = append(leaves, *leave)
	}
	return leaves, nil
}

func newLeaveService(repo *leaveRepoStub, attendance *attendanceRepoStub, scope string) *LeaveService {
	return NewLeaveService(repo, attendance, nil, scope, nil, nil)
}

func TestMarkClassLeave(t *testing.T) {
	repo := &leaveRepoStub{}
	svc := newLeaveService(repo, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	leave, err := svc.MarkClassLeave(context.Background(), "hod-1", MarkClassLeaveRequest{
		Semester: 3, Date: wednesday, Reason: "department seminar",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, leave.Semester)
	assert.Equal(t, "hod-1", leave.MarkedBy)
	require.Len(t, repo.createdClass, 1)
}

func TestMarkClassLeaveDuplicate(t *testing.T) {
	repo := &leaveRepoStub{classRows: map[string]*models.ClassLeave{
		wednesday.String(): {Semester: 3, Date: wednesday},
	}}
	svc := newLeaveService(repo, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	_, err := svc.MarkClassLeave(context.Background(), "hod-1", MarkClassLeaveRequest{
		Semester: 3, Date: wednesday, Reason: "department seminar",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "semester 3")
	assert.Contains(t, err.Error(), wednesday.String())
}

func TestMarkClassLeaveRejectsInvalidSemester(t *testing.T) {
	svc := newLeaveService(&leaveRepoStub{}, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	_, err := svc.MarkClassLeave(context.Background(), "hod-1", MarkClassLeaveRequest{
		Semester: 9, Date: wednesday, Reason: "x",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRemoveClassLeaveNotFound(t *testing.T) {
	svc := newLeaveService(&leaveRepoStub{}, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	err := svc.RemoveClassLeave(context.Background(), 3, wednesday)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkCollegeLeaveGlobalScopeDropsSemester(t *testing.T) {
	repo := &leaveRepoStub{}
	semester := 3
	svc := newLeaveService(repo, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	leave, err := svc.MarkCollegeLeave(context.Background(), "hod-1", MarkCollegeLeaveRequest{
		Date: thursday, Reason: "public holiday", Semester: &semester,
	})
	require.NoError(t, err)
	assert.Nil(t, leave.Semester)
}

func TestMarkCollegeLeavePerSemesterScopeKeepsSemester(t *testing.T) {
	repo := &leaveRepoStub{}
	semester := 3
	svc := newLeaveService(repo, &attendanceRepoStub{}, config.CollegeLeaveScopePerSemester)

	leave, err := svc.MarkCollegeLeave(context.Background(), "hod-1", MarkCollegeLeaveRequest{
		Date: thursday, Reason: "public holiday", Semester: &semester,
	})
	require.NoError(t, err)
	require.NotNil(t, leave.Semester)
	assert.Equal(t, 3, *leave.Semester)
}

func TestMarkCollegeLeaveBlockedByAttendance(t *testing.T) {
	attendance := &attendanceRepoStub{existing: map[string]bool{thursday.String(): true}}
	svc := newLeaveService(&leaveRepoStub{}, attendance, config.CollegeLeaveScopeGlobal)

	_, err := svc.MarkCollegeLeave(context.Background(), "hod-1", MarkCollegeLeaveRequest{
		Date: thursday, Reason: "public holiday",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "attendance already recorded")
}

func TestMarkCollegeLeaveDuplicate(t *testing.T) {
	repo := &leaveRepoStub{collegeRows: map[string]*models.CollegeLeave{
		thursday.String(): {Date: thursday},
	}}
	svc := newLeaveService(repo, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	_, err := svc.MarkCollegeLeave(context.Background(), "hod-1", MarkCollegeLeaveRequest{
		Date: thursday, Reason: "public holiday",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), thursday.String())
}

func TestListCollegeLeavesGlobalScopeIgnoresSemesterFilter(t *testing.T) {
	repo := &leaveRepoStub{}
	semester := 3
	svc := newLeaveService(repo, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	_, err := svc.ListCollegeLeaves(context.Background(), models.LeaveFilter{Semester: &semester})
	require.NoError(t, err)
	assert.Nil(t, repo.lastCollegeFilter.Semester)
}

func TestRemoveCollegeLeaveNotFound(t *testing.T) {
	svc := newLeaveService(&leaveRepoStub{}, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	err := svc.RemoveCollegeLeave(context.Background(), thursday, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
