package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.PeriodRecord) (*models.PeriodRecord, error)
	GetByID(ctx context.Context, id string) (*models.PeriodRecord, error)
	ReplaceEntries(ctx context.Context, recordID, actor string, entries []models.PeriodEntry) error
	Delete(ctx context.Context, id string) error
	ListForSemester(ctx context.Context, semester int, filter models.AttendanceFilter) ([]models.PeriodRecord, error)
}

type attendanceUserRepository interface {
	CountStudentsByIDs(ctx context.Context, semester int, ids []string) (int, error)
}

// AttendanceService owns the write path for period records and the raw
// department listing. Resolution and analytics live elsewhere.
type AttendanceService struct {
	repo      attendanceRepository
	users     attendanceUserRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, users attendanceUserRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, users: users, cache: cache, validator: validate, logger: logger}
}

// MarkPeriod records attendance for one (semester, date, period) session.
// Re-marking the same session replaces it wholesale; the last writer wins.
func (s *AttendanceService) MarkPeriod(ctx context.Context, actorID string, req models.MarkPeriodRequest) (*models.PeriodRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if req.Date.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date is required")
	}
	if err := s.checkEntries(ctx, req.Semester, req.Entries); err != nil {
		return nil, err
	}

	record := &models.PeriodRecord{
		Semester:   req.Semester,
		Date:       req.Date,
		Period:     req.Period,
		RecordedBy: actorID,
		Entries:    req.Entries,
	}
	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store attendance record")
	}

	s.invalidateAnalytics(ctx, req.Semester)
	s.logger.Info("attendance period marked",
		zap.Int("semester", req.Semester),
		zap.String("date", req.Date.String()),
		zap.Int("period", req.Period),
		zap.Int("entries", len(req.Entries)))
	return stored, nil
}

// UpdatePeriod replaces the entries of an existing record by id.
func (s *AttendanceService) UpdatePeriod(ctx context.Context, recordID, actorID string, req models.UpdatePeriodRequest) (*models.PeriodRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	existing, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if err := s.checkEntries(ctx, existing.Semester, req.Entries); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceEntries(ctx, recordID, actorID, req.Entries); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance record")
	}

	s.invalidateAnalytics(ctx, existing.Semester)
	updated, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload attendance record")
	}
	return updated, nil
}

// DeletePeriod removes a record by id.
func (s *AttendanceService) DeletePeriod(ctx context.Context, recordID string) error {
	existing, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}

	if err := s.repo.Delete(ctx, recordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance record")
	}

	s.invalidateAnalytics(ctx, existing.Semester)
	return nil
}

// ListDepartment returns raw records for a semester, newest date first. Never
// errors on an empty semester.
func (s *AttendanceService) ListDepartment(ctx context.Context, semester int, filter models.AttendanceFilter) ([]models.PeriodRecord, error) {
	if semester < models.MinSemester || semester > models.MaxSemester {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be between %d and %d", models.MinSemester, models.MaxSemester))
	}
	records, err := s.repo.ListForSemester(ctx, semester, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance records")
	}
	return records, nil
}

// checkEntries validates status values, rejects duplicate students and
// verifies every id belongs to an active student of the semester.
func (s *AttendanceService) checkEntries(ctx context.Context, semester int, entries []models.PeriodEntry) error {
	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Status.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q for student %s", entry.Status, entry.StudentID))
		}
		if _, dup := seen[entry.StudentID]; dup {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate entry for student %s", entry.StudentID))
		}
		seen[entry.StudentID] = struct{}{}
		ids = append(ids, entry.StudentID)
	}

	count, err := s.users.CountStudentsByIDs(ctx, semester, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify students")
	}
	if count != len(ids) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%d entries do not match active students of semester %d", len(ids)-count, semester))
	}
	return nil
}

func (s *AttendanceService) invalidateAnalytics(ctx context.Context, semester int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, analyticsCachePattern(semester)); err != nil {
		s.logger.Warn("analytics cache invalidation failed", zap.Int("semester", semester), zap.Error(err))
	}
}
