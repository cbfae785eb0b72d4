package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

type statsAttendanceRepository interface {
	ListForStudent(ctx context.Context, studentID string, filter models.AttendanceFilter) ([]models.StudentPeriodMark, error)
	ActiveDates(ctx context.Context, semester int, from, to *models.Date) ([]models.Date, error)
	PeriodCompletion(ctx context.Context, semester int) ([]models.PeriodCompletion, error)
}

type statsUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListStudents(ctx context.Context, semester *int) ([]models.User, error)
}

// StatsService computes aggregate attendance figures. Per-student numbers are
// derived by replaying the calendar so analytics and the calendar view can
// never disagree. Cross-student reads go through the cache.
type StatsService struct {
	attendance statsAttendanceRepository
	users      statsUserRepository
	calendar   *CalendarService
	cache      *CacheService
	logger     *zap.Logger
}

// NewStatsService constructs a StatsService.
func NewStatsService(attendance statsAttendanceRepository, users statsUserRepository, calendar *CalendarService, cache *CacheService, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{attendance: attendance, users: users, calendar: calendar, cache: cache, logger: logger}
}

func analyticsCachePattern(semester int) string {
	return fmt.Sprintf("analytics:semester:%d:*", semester)
}

func analyticsCachePatternAll() string {
	return "analytics:*"
}

// StudentReport returns a student's own marks together with per-semester
// statistics. Semesters without a single countable day report zeroes.
func (s *StatsService) StudentReport(ctx context.Context, studentID string, filter models.AttendanceFilter) (*models.StudentAttendanceReport, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}

	marks, err := s.attendance.ListForStudent(ctx, studentID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student marks")
	}

	semesters := map[int]struct{}{}
	if student.Semester != nil {
		semesters[*student.Semester] = struct{}{}
	}
	for _, mark := range marks {
		semesters[mark.Semester] = struct{}{}
	}

	statistics := make(map[int]models.SemesterStats, len(semesters))
	for semester := range semesters {
		stats, err := s.semesterStatsFor(ctx, studentID, semester)
		if err != nil {
			return nil, err
		}
		statistics[semester] = *stats
	}

	return &models.StudentAttendanceReport{
		Student: models.UserInfo{
			ID:         student.ID,
			Email:      student.Email,
			FullName:   student.FullName,
			Role:       student.Role,
			Department: student.Department,
		},
		Records:    marks,
		Statistics: statistics,
	}, nil
}

// StudentsWithAttendance returns every active student of the semester with
// their attendance percentage.
func (s *StatsService) StudentsWithAttendance(ctx context.Context, semester int) ([]models.StudentAttendanceRow, error) {
	if semester < models.MinSemester || semester > models.MaxSemester {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be between %d and %d", models.MinSemester, models.MaxSemester))
	}

	cacheKey := fmt.Sprintf("analytics:semester:%d:students", semester)
	var cached []models.StudentAttendanceRow
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	students, err := s.users.ListStudents(ctx, &semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	rows := make([]models.StudentAttendanceRow, 0, len(students))
	for _, student := range students {
		stats, err := s.semesterStatsFor(ctx, student.ID, semester)
		if err != nil {
			return nil, err
		}
		row := models.StudentAttendanceRow{
			StudentID:   student.ID,
			FullName:    student.FullName,
			Email:       student.Email,
			Semester:    semester,
			Department:  student.Department,
			TotalDays:   stats.TotalDays,
			PresentDays: stats.PresentDays,
			AbsentDays:  stats.AbsentDays,
			Percentage:  stats.Percentage,
		}
		if student.RollNumber != nil {
			row.RollNumber = *student.RollNumber
		}
		rows = append(rows, row)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, rows, 0); err != nil {
			s.logger.Warn("failed to cache student attendance", zap.Error(err))
		}
	}
	return rows, nil
}

// LowAttendance returns students below the percentage threshold, worst first.
func (s *StatsService) LowAttendance(ctx context.Context, semester int, threshold float64) ([]models.StudentAttendanceRow, error) {
	if threshold < 0 || threshold > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "threshold must be between 0 and 100")
	}

	rows, err := s.StudentsWithAttendance(ctx, semester)
	if err != nil {
		return nil, err
	}

	low := make([]models.StudentAttendanceRow, 0)
	for _, row := range rows {
		if row.Percentage < threshold {
			low = append(low, row)
		}
	}
	sort.SliceStable(low, func(i, j int) bool { return low[i].Percentage < low[j].Percentage })
	return low, nil
}

// SemesterSummary aggregates the operational view of one semester.
func (s *StatsService) SemesterSummary(ctx context.Context, semester int) (*models.SemesterSummary, error) {
	if semester < models.MinSemester || semester > models.MaxSemester {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be between %d and %d", models.MinSemester, models.MaxSemester))
	}

	cacheKey := fmt.Sprintf("analytics:semester:%d:summary", semester)
	var cached models.SemesterSummary
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.StudentsWithAttendance(ctx, semester)
	if err != nil {
		return nil, err
	}

	activeDates, err := s.attendance.ActiveDates(ctx, semester, nil, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marked dates")
	}

	completion, err := s.attendance.PeriodCompletion(ctx, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period completion")
	}

	summary := &models.SemesterSummary{
		Semester:         semester,
		TotalStudents:    len(rows),
		TotalDays:        len(activeDates),
		PeriodCompletion: make(map[int]int, models.PeriodsPerDay),
	}
	for p := models.FirstPeriod; p <= models.LastPeriod; p++ {
		summary.PeriodCompletion[p] = 0
	}
	for _, row := range completion {
		summary.PeriodCompletion[row.Period] = row.Count
	}

	if len(rows) > 0 {
		var sum float64
		for _, row := range rows {
			sum += row.Percentage
		}
		summary.AveragePercentage = roundTwo(sum / float64(len(rows)))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, summary, 0); err != nil {
			s.logger.Warn("failed to cache semester summary", zap.Error(err))
		}
	}
	return summary, nil
}

// semesterStatsFor replays the student's calendar for one semester and counts
// the countable days.
func (s *StatsService) semesterStatsFor(ctx context.Context, studentID string, semester int) (*models.SemesterStats, error) {
	calendar, err := s.calendar.BuildCalendar(ctx, studentID, semester, nil, nil)
	if err != nil {
		return nil, err
	}

	stats := &models.SemesterStats{Semester: semester}
	for _, day := range calendar.Days {
		if !CountsTowardTotal(day.Status) {
			continue
		}
		stats.TotalDays++
		if day.Status == models.DayStatusPresent {
			stats.PresentDays++
		} else {
			stats.AbsentDays++
		}
	}
	stats.Percentage = Percentage(stats.PresentDays, stats.TotalDays)
	return stats, nil
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}
