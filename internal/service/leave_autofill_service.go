package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/internal/repository"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
	"github.com/jaseeljazc/campuss-atd/pkg/jobs"
)

const autofillActor = "system:leave-autofill"

type autofillLeaveRepository interface {
	GetCollegeLeave(ctx context.Context, date models.Date, semester *int) (*models.CollegeLeave, error)
	GetClassLeave(ctx context.Context, semester int, date models.Date) (*models.ClassLeave, error)
	CreateCollegeLeave(ctx context.Context, leave *models.CollegeLeave) error
}

type autofillAttendanceRepository interface {
	ExistsOnDate(ctx context.Context, date models.Date, semester *int) (bool, error)
}

// LeaveAutofillService backfills college-leave rows for weekdays that ended
// with no attendance marked anywhere. Running it twice for the same day is a
// no-op: every target is existence-checked before insert.
type LeaveAutofillService struct {
	leaves     autofillLeaveRepository
	attendance autofillAttendanceRepository
	metrics    *MetricsService
	scope      string
	logger     *zap.Logger
	queue      *jobs.Queue
}

// NewLeaveAutofillService constructs the materializer and its job queue.
func NewLeaveAutofillService(leaves autofillLeaveRepository, attendance autofillAttendanceRepository, metrics *MetricsService, scope string, logger *zap.Logger) *LeaveAutofillService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LeaveAutofillService{
		leaves:     leaves,
		attendance: attendance,
		metrics:    metrics,
		scope:      scope,
		logger:     logger,
	}
	s.queue = jobs.NewQueue("leave-autofill", s.handleJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: time.Minute,
		Logger:     logger,
	})
	return s
}

// Start launches the worker and a daily ticker that enqueues a run for the
// previous weekday.
func (s *LeaveAutofillService) Start(ctx context.Context, interval time.Duration) {
	s.queue.Start(ctx)
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				target := previousWeekday(models.DateOf(time.Now().UTC()))
				if err := s.Enqueue(target); err != nil {
					s.logger.Warn("failed to enqueue autofill run", zap.Error(err))
				}
			}
		}
	}()
}

// Stop drains the worker.
func (s *LeaveAutofillService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules an autofill run for the given date.
func (s *LeaveAutofillService) Enqueue(date models.Date) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "autofill",
		Payload: date,
	})
}

func (s *LeaveAutofillService) handleJob(ctx context.Context, job jobs.Job) error {
	date, ok := job.Payload.(models.Date)
	if !ok {
		s.logger.Error("autofill job carries unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.Run(ctx, date)
}

// Run materializes a college leave for the date when nothing was marked.
// Weekend dates are skipped outright.
func (s *LeaveAutofillService) Run(ctx context.Context, date models.Date) error {
	if date.IsWeekend() {
		return nil
	}

	if s.scope == config.CollegeLeaveScopePerSemester {
		var firstErr error
		for semester := models.MinSemester; semester <= models.MaxSemester; semester++ {
			sem := semester
			if err := s.runForScope(ctx, date, &sem); err != nil {
				s.logger.Warn("autofill failed for semester", zap.Int("semester", semester), zap.Error(err))
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		return firstErr
	}
	return s.runForScope(ctx, date, nil)
}

func (s *LeaveAutofillService) runForScope(ctx context.Context, date models.Date, semester *int) error {
	if _, err := s.leaves.GetCollegeLeave(ctx, date, semester); err == nil {
		s.metrics.RecordAutofillRun("skipped")
		return nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		s.metrics.RecordAutofillRun("error")
		return err
	}

	marked, err := s.attendance.ExistsOnDate(ctx, date, semester)
	if err != nil {
		s.metrics.RecordAutofillRun("error")
		return err
	}
	if marked {
		s.metrics.RecordAutofillRun("skipped")
		return nil
	}

	if semester != nil {
		if _, err := s.leaves.GetClassLeave(ctx, *semester, date); err == nil {
			s.metrics.RecordAutofillRun("skipped")
			return nil
		} else if !errors.Is(err, sql.ErrNoRows) {
			s.metrics.RecordAutofillRun("error")
			return err
		}
	}

	leave := &models.CollegeLeave{
		Semester: semester,
		Date:     date,
		Reason:   "auto-marked: no attendance recorded",
		MarkedBy: autofillActor,
	}
	if err := s.leaves.CreateCollegeLeave(ctx, leave); err != nil {
		// A concurrent manual mark is fine; the day is a leave either way.
		if repository.IsUniqueViolation(err) {
			s.metrics.RecordAutofillRun("skipped")
			return nil
		}
		s.metrics.RecordAutofillRun("error")
		return err
	}

	s.metrics.RecordAutofillRun("filled")
	s.logger.Info("college leave auto-filled", zap.String("date", date.String()))
	return nil
}

// previousWeekday steps back from the given date to the most recent weekday.
func previousWeekday(date models.Date) models.Date {
	day := date.AddDays(-1)
	for day.IsWeekend() {
		day = day.AddDays(-1)
	}
	return day
}
