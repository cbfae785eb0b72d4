package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/internal/repository"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

type leaveRepository interface {
	CreateClassLeave(ctx context.Context, leave *models.ClassLeave) error
	GetClassLeave(ctx context.Context, semester int, date models.Date) (*models.ClassLeave, error)
	DeleteClassLeave(ctx context.Context, semester int, date models.Date) error
	ListClassLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.ClassLeave, error)
	CreateCollegeLeave(ctx context.Context, leave *models.CollegeLeave) error
	GetCollegeLeave(ctx context.Context, date models.Date, semester *int) (*models.CollegeLeave, error)
	DeleteCollegeLeave(ctx context.Context, date models.Date, semester *int) error
	ListCollegeLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.CollegeLeave, error)
}

type leaveAttendanceRepository interface {
	ExistsOnDate(ctx context.Context, date models.Date, semester *int) (bool, error)
}

// MarkClassLeaveRequest declares a semester-scoped leave day.
type MarkClassLeaveRequest struct {
	Semester int         `json:"semester" validate:"required,min=1,max=8"`
	Date     models.Date `json:"date" validate:"required"`
	Reason   string      `json:"reason" validate:"required"`
}

// MarkCollegeLeaveRequest declares a department-wide leave day.
type MarkCollegeLeaveRequest struct {
	Date   models.Date `json:"date" validate:"required"`
	Reason string      `json:"reason" validate:"required"`
	// Semester is honored only under per-semester scope.
	Semester *int `json:"semester,omitempty" validate:"omitempty,min=1,max=8"`
}

// LeaveService owns the class and college leave registries.
type LeaveService struct {
	repo       leaveRepository
	attendance leaveAttendanceRepository
	cache      *CacheService
	scope      string
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewLeaveService constructs a LeaveService.
func NewLeaveService(repo leaveRepository, attendance leaveAttendanceRepository, cache *CacheService, scope string, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if scope != config.CollegeLeaveScopePerSemester {
		scope = config.CollegeLeaveScopeGlobal
	}
	return &LeaveService{repo: repo, attendance: attendance, cache: cache, scope: scope, validator: validate, logger: logger}
}

// MarkClassLeave registers a leave day for one semester. Duplicate (semester,
// date) pairs are rejected with a conflict naming the colliding key.
func (s *LeaveService) MarkClassLeave(ctx context.Context, actorID string, req MarkClassLeaveRequest) (*models.ClassLeave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class leave payload")
	}
	if req.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}

	if _, err := s.repo.GetClassLeave(ctx, req.Semester, req.Date); err == nil {
		return nil, s.classLeaveConflict(req.Semester, req.Date)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class leave")
	}

	leave := &models.ClassLeave{
		Semester: req.Semester,
		Date:     req.Date,
		Reason:   req.Reason,
		MarkedBy: actorID,
	}
	if err := s.repo.CreateClassLeave(ctx, leave); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, s.classLeaveConflict(req.Semester, req.Date)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class leave")
	}

	s.invalidate(ctx, req.Semester)
	s.logger.Info("class leave marked", zap.Int("semester", req.Semester), zap.String("date", req.Date.String()))
	return leave, nil
}

// RemoveClassLeave deletes the leave for (semester, date).
func (s *LeaveService) RemoveClassLeave(ctx context.Context, semester int, date models.Date) error {
	if semester < models.MinSemester || semester > models.MaxSemester {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be between %d and %d", models.MinSemester, models.MaxSemester))
	}
	if err := s.repo.DeleteClassLeave(ctx, semester, date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no class leave for semester %d on %s", semester, date))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class leave")
	}
	s.invalidate(ctx, semester)
	return nil
}

// ListClassLeaves returns class leaves, newest first.
func (s *LeaveService) ListClassLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.ClassLeave, error) {
	leaves, err := s.repo.ListClassLeaves(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class leaves")
	}
	return leaves, nil
}

// MarkCollegeLeave registers a department-wide leave day. It refuses dates
// that already carry attendance records: the day has been taught, marking it
// a leave would silently rewrite resolved history.
func (s *LeaveService) MarkCollegeLeave(ctx context.Context, actorID string, req MarkCollegeLeaveRequest) (*models.CollegeLeave, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid college leave payload")
	}
	if req.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}

	semester := s.scopedSemester(req.Semester)

	if _, err := s.repo.GetCollegeLeave(ctx, req.Date, semester); err == nil {
		return nil, s.collegeLeaveConflict(req.Date, semester)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check college leave")
	}

	marked, err := s.attendance.ExistsOnDate(ctx, req.Date, semester)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance on date")
	}
	if marked {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("attendance already recorded on %s", req.Date))
	}

	leave := &models.CollegeLeave{
		Semester: semester,
		Date:     req.Date,
		Reason:   req.Reason,
		MarkedBy: actorID,
	}
	if err := s.repo.CreateCollegeLeave(ctx, leave); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, s.collegeLeaveConflict(req.Date, semester)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create college leave")
	}

	s.invalidateAll(ctx)
	s.logger.Info("college leave marked", zap.String("date", req.Date.String()))
	return leave, nil
}

// RemoveCollegeLeave deletes the leave for a date under the active scope.
func (s *LeaveService) RemoveCollegeLeave(ctx context.Context, date models.Date, semester *int) error {
	scoped := s.scopedSemester(semester)
	if err := s.repo.DeleteCollegeLeave(ctx, date, scoped); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no college leave on %s", date))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete college leave")
	}
	s.invalidateAll(ctx)
	return nil
}

// ListCollegeLeaves returns college leaves, newest first.
func (s *LeaveService) ListCollegeLeaves(ctx context.Context, filter models.LeaveFilter) ([]models.CollegeLeave, error) {
	if s.scope == config.CollegeLeaveScopeGlobal {
		filter.Semester = nil
	}
	leaves, err := s.repo.ListCollegeLeaves(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list college leaves")
	}
	return leaves, nil
}

// scopedSemester drops the semester under global scope so every row is a
// department-wide one; under per-semester scope it passes through.
func (s *LeaveService) scopedSemester(semester *int) *int {
	if s.scope == config.CollegeLeaveScopeGlobal {
		return nil
	}
	return semester
}

func (s *LeaveService) classLeaveConflict(semester int, date models.Date) error {
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("class leave already exists for semester %d on %s", semester, date))
}

func (s *LeaveService) collegeLeaveConflict(date models.Date, semester *int) error {
	if semester != nil {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("college leave already exists for semester %d on %s", *semester, date))
	}
	return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("college leave already exists on %s", date))
}

func (s *LeaveService) invalidate(ctx context.Context, semester int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, analyticsCachePattern(semester)); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Int("semester", semester), zap.Error(err))
	}
}

func (s *LeaveService) invalidateAll(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, analyticsCachePatternAll()); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Error(err))
	}
}
