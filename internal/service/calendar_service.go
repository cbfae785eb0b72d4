package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

type calendarAttendanceRepository interface {
	ListForStudent(ctx context.Context, studentID string, filter models.AttendanceFilter) ([]models.StudentPeriodMark, error)
	ActiveDates(ctx context.Context, semester int, from, to *models.Date) ([]models.Date, error)
	DateRange(ctx context.Context, semester int) (*models.Date, *models.Date, error)
}

type calendarLeaveRepository interface {
	ClassLeaveDates(ctx context.Context, semester int, from, to *models.Date) ([]models.Date, error)
	CollegeLeaveDates(ctx context.Context, semester *int, from, to *models.Date) ([]models.Date, error)
}

type calendarUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CalendarService rebuilds a student's day-by-day attendance view. It holds
// no state between calls; every build re-reads the stores.
type CalendarService struct {
	attendance calendarAttendanceRepository
	leaves     calendarLeaveRepository
	users      calendarUserRepository
	rules      Rules
	logger     *zap.Logger
}

// NewCalendarService constructs a CalendarService.
func NewCalendarService(attendance calendarAttendanceRepository, leaves calendarLeaveRepository, users calendarUserRepository, rules Rules, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{attendance: attendance, leaves: leaves, users: users, rules: rules, logger: logger}
}

// BuildCalendar reconstructs the weekday calendar for a student and semester.
// The range defaults to [first, last] marked date of the semester; weekends
// are omitted entirely. An unmarked semester yields an empty calendar.
func (s *CalendarService) BuildCalendar(ctx context.Context, studentID string, semester int, from, to *models.Date) (*models.StudentCalendar, error) {
	if semester < models.MinSemester || semester > models.MaxSemester {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be between %d and %d", models.MinSemester, models.MaxSemester))
	}

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

	calendar := &models.StudentCalendar{
		Student: models.UserInfo{
			ID:         student.ID,
			Email:      student.Email,
			FullName:   student.FullName,
			Role:       student.Role,
			Department: student.Department,
		},
		Semester: semester,
		Days:     []models.CalendarDay{},
	}

	start, end := from, to
	if start == nil || end == nil {
		minDate, maxDate, err := s.attendance.DateRange(ctx, semester)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to determine semester range")
		}
		if start == nil {
			start = minDate
		}
		if end == nil {
			end = maxDate
		}
	}
	if start == nil || end == nil || end.Before(*start) {
		return calendar, nil
	}

	facts, err := s.collectFacts(ctx, studentID, semester, start, end)
	if err != nil {
		return nil, err
	}

	for day := *start; !day.After(*end); day = day.AddDays(1) {
		if day.IsWeekend() {
			continue
		}
		status, periods := s.rules.ResolveDay(facts.forDate(day))
		calendar.Days = append(calendar.Days, models.CalendarDay{
			Date:    day,
			Status:  status,
			Periods: periods,
		})
	}

	return calendar, nil
}

// dayFactsIndex carries per-date lookups for one calendar build.
type dayFactsIndex struct {
	collegeLeaves map[string]bool
	classLeaves   map[string]bool
	activeDates   map[string]bool
	marks         map[string]map[int]models.EntryStatus
}

func (f *dayFactsIndex) forDate(day models.Date) DayFacts {
	key := day.String()
	return DayFacts{
		CollegeLeave: f.collegeLeaves[key],
		ClassLeave:   f.classLeaves[key],
		DayMarked:    f.activeDates[key],
		Marks:        f.marks[key],
	}
}

func (s *CalendarService) collectFacts(ctx context.Context, studentID string, semester int, from, to *models.Date) (*dayFactsIndex, error) {
	var collegeScope *int
	if s.rules.CollegeLeaveScope == config.CollegeLeaveScopePerSemester {
		collegeScope = &semester
	}

	collegeDates, err := s.leaves.CollegeLeaveDates(ctx, collegeScope, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load college leaves")
	}
	classDates, err := s.leaves.ClassLeaveDates(ctx, semester, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class leaves")
	}
	activeDates, err := s.attendance.ActiveDates(ctx, semester, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marked dates")
	}
	marks, err := s.attendance.ListForStudent(ctx, studentID, models.AttendanceFilter{Semester: &semester, DateFrom: from, DateTo: to})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student marks")
	}

	facts := &dayFactsIndex{
		collegeLeaves: dateSet(collegeDates),
		classLeaves:   dateSet(classDates),
		activeDates:   dateSet(activeDates),
		marks:         make(map[string]map[int]models.EntryStatus),
	}
	for _, mark := range marks {
		key := mark.Date.String()
		if facts.marks[key] == nil {
			facts.marks[key] = make(map[int]models.EntryStatus, models.PeriodsPerDay)
		}
		facts.marks[key][mark.Period] = mark.Status
	}
	return facts, nil
}

func dateSet(dates []models.Date) map[string]bool {
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		set[d.String()] = true
	}
	return set
}
