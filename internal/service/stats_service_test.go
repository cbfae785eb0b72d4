package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

type cacheRepoStub struct {
	store map[string][]byte
	gets  []string
	sets  []string
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	s.gets = append(s.gets, key)
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	s.store[key] = raw
	s.sets = append(s.sets, key)
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range s.store {
		delete(s.store, key)
	}
	return nil
}

func newTestCache(repo *cacheRepoStub) *CacheService {
	return NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
}

// Three students over three marked days: stu-a attends every day, stu-b one
// day, stu-c two days.
func newStatsFixture() (*StatsService, *cacheRepoStub) {
	attendance := &attendanceRepoStub{
		marksByStudent: map[string][]models.StudentPeriodMark{
			"stu-a": append(append(fullDayMarks(monday, models.EntryStatusPresent),
				fullDayMarks(tuesday, models.EntryStatusPresent)...),
				fullDayMarks(wednesday, models.EntryStatusPresent)...),
			"stu-b": fullDayMarks(monday, models.EntryStatusPresent),
			"stu-c": append(fullDayMarks(monday, models.EntryStatusPresent),
				fullDayMarks(tuesday, models.EntryStatusPresent)...),
		},
		active:  []models.Date{monday, tuesday, wednesday},
		minDate: datePtr(monday),
		maxDate: datePtr(wednesday),
		completion: []models.PeriodCompletion{
			{Period: 1, Count: 3},
			{Period: 3, Count: 2},
		},
	}
	users := &userRepoStub{users: map[string]*models.User{
		"stu-a": studentUser("stu-a", 3),
		"stu-b": studentUser("stu-b", 3),
		"stu-c": studentUser("stu-c", 3),
	}}
	cacheRepo := &cacheRepoStub{}

	calendar := NewCalendarService(attendance, &leaveRepoStub{}, users, defaultRules(), nil)
	stats := NewStatsService(attendance, users, calendar, newTestCache(cacheRepo), nil)
	return stats, cacheRepo
}

func rowByID(t *testing.T, rows []models.StudentAttendanceRow, id string) models.StudentAttendanceRow {
	t.Helper()
	for _, row := range rows {
		if row.StudentID == id {
			return row
		}
	}
	t.Fatalf("no row for student %s", id)
	return models.StudentAttendanceRow{}
}

func TestStudentsWithAttendancePercentages(t *testing.T) {
	stats, _ := newStatsFixture()

	rows, err := stats.StudentsWithAttendance(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	a := rowByID(t, rows, "stu-a")
	assert.Equal(t, 3, a.TotalDays)
	assert.Equal(t, 3, a.PresentDays)
	assert.Equal(t, 100.0, a.Percentage)

	b := rowByID(t, rows, "stu-b")
	assert.Equal(t, 1, b.PresentDays)
	assert.Equal(t, 2, b.AbsentDays)
	assert.Equal(t, 33.33, b.Percentage)

	c := rowByID(t, rows, "stu-c")
	assert.Equal(t, 66.67, c.Percentage)
}

func TestStudentsWithAttendanceRejectsInvalidSemester(t *testing.T) {
	stats, _ := newStatsFixture()
	_, err := stats.StudentsWithAttendance(context.Background(), 0)
	require.Error(t, err)
}

func TestStudentsWithAttendanceCacheHit(t *testing.T) {
	cached := []models.StudentAttendanceRow{{StudentID: "cached", Percentage: 42}}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)

	cacheRepo := &cacheRepoStub{store: map[string][]byte{
		"analytics:semester:3:students": raw,
	}}
	// No users registered: a repository round trip would return nothing.
	calendar := NewCalendarService(&attendanceRepoStub{}, &leaveRepoStub{}, &userRepoStub{}, defaultRules(), nil)
	stats := NewStatsService(&attendanceRepoStub{}, &userRepoStub{}, calendar, newTestCache(cacheRepo), nil)

	rows, err := stats.StudentsWithAttendance(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "cached", rows[0].StudentID)
}

func TestStudentsWithAttendancePopulatesCache(t *testing.T) {
	stats, cacheRepo := newStatsFixture()

	_, err := stats.StudentsWithAttendance(context.Background(), 3)
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.sets, "analytics:semester:3:students")
}

func TestLowAttendanceSortsWorstFirst(t *testing.T) {
	stats, _ := newStatsFixture()

	rows, err := stats.LowAttendance(context.Background(), 3, 80)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "stu-b", rows[0].StudentID)
	assert.Equal(t, "stu-c", rows[1].StudentID)
}

func TestLowAttendanceExcludesAtThreshold(t *testing.T) {
	stats, _ := newStatsFixture()

	// stu-c sits exactly at 66.67: the comparison is strict, so only stu-b
	// falls below.
	rows, err := stats.LowAttendance(context.Background(), 3, 66.67)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "stu-b", rows[0].StudentID)
}

func TestLowAttendanceRejectsInvalidThreshold(t *testing.T) {
	stats, _ := newStatsFixture()
	_, err := stats.LowAttendance(context.Background(), 3, -1)
	require.Error(t, err)
	_, err = stats.LowAttendance(context.Background(), 3, 101)
	require.Error(t, err)
}

func TestSemesterSummary(t *testing.T) {
	stats, _ := newStatsFixture()

	summary, err := stats.SemesterSummary(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Semester)
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, 3, summary.TotalDays)
	assert.Equal(t, 66.67, summary.AveragePercentage)

	// Every period appears even when nothing was recorded for it.
	require.Len(t, summary.PeriodCompletion, models.PeriodsPerDay)
	assert.Equal(t, 3, summary.PeriodCompletion[1])
	assert.Equal(t, 0, summary.PeriodCompletion[2])
	assert.Equal(t, 2, summary.PeriodCompletion[3])
}

func TestSemesterSummaryEmptySemester(t *testing.T) {
	users := &userRepoStub{users: map[string]*models.User{}}
	calendar := NewCalendarService(&attendanceRepoStub{}, &leaveRepoStub{}, users, defaultRules(), nil)
	stats := NewStatsService(&attendanceRepoStub{}, users, calendar, nil, nil)

	summary, err := stats.SemesterSummary(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalStudents)
	assert.Equal(t, 0.0, summary.AveragePercentage)
}

func TestStudentReport(t *testing.T) {
	stats, _ := newStatsFixture()

	report, err := stats.StudentReport(context.Background(), "stu-b", models.AttendanceFilter{})
	require.NoError(t, err)

	assert.Equal(t, "stu-b", report.Student.ID)
	require.Contains(t, report.Statistics, 3)
	assert.Equal(t, 33.33, report.Statistics[3].Percentage)
	assert.Len(t, report.Records, models.PeriodsPerDay)
}

func TestStudentReportUnknownStudent(t *testing.T) {
	stats, _ := newStatsFixture()
	_, err := stats.StudentReport(context.Background(), "ghost", models.AttendanceFilter{})
	require.Error(t, err)
}
