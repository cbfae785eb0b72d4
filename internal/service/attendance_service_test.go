package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

type periodRecordRepoStub struct {
	records  map[string]*models.PeriodRecord
	upserted []*models.PeriodRecord
	replaced [][]models.PeriodEntry
	deleted  []string
}

func (s *periodRecordRepoStub) Upsert(ctx context.Context, record *models.PeriodRecord) (*models.PeriodRecord, error) {
	stored := *record
	stored.ID = "rec-1"
	if s.records == nil {
		s.records = make(map[string]*models.PeriodRecord)
	}
	s.records[stored.ID] = &stored
	s.upserted = append(s.upserted, &stored)
	return &stored, nil
}

func (s *periodRecordRepoStub) GetByID(ctx context.Context, id string) (*models.PeriodRecord, error) {
	if record, ok := s.records[id]; ok {
		return record, nil
	}
	return nil, sql.ErrNoRows
}

func (s *periodRecordRepoStub) ReplaceEntries(ctx context.Context, recordID, actor string, entries []models.PeriodEntry) error {
	record, ok := s.records[recordID]
	if !ok {
		return sql.ErrNoRows
	}
	record.Entries = entries
	record.RecordedBy = actor
	s.replaced = append(s.replaced, entries)
	return nil
}

func (s *periodRecordRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.records, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *periodRecordRepoStub) ListForSemester(ctx context.Context, semester int, filter models.AttendanceFilter) ([]models.PeriodRecord, error) {
	records := []models.PeriodRecord{}
	for _, record := range s.records {
		if record.Semester == semester {
			records = append(records, *record)
		}
	}
	return records, nil
}

// rosterStub verifies entry ids against a fixed set of enrolled students.
type rosterStub struct {
	enrolled map[string]bool
}

func (s *rosterStub) CountStudentsByIDs(ctx context.Context, semester int, ids []string) (int, error) {
	count := 0
	for _, id := range ids {
		if s.enrolled[id] {
			count++
		}
	}
	return count, nil
}

func newAttendanceFixture(enrolled ...string) (*AttendanceService, *periodRecordRepoStub) {
	roster := &rosterStub{enrolled: map[string]bool{}}
	for _, id := range enrolled {
		roster.enrolled[id] = true
	}
	repo := &periodRecordRepoStub{}
	return NewAttendanceService(repo, roster, nil, nil, nil), repo
}

func markRequest(entries ...models.PeriodEntry) models.MarkPeriodRequest {
	return models.MarkPeriodRequest{Semester: 3, Date: monday, Period: 2, Entries: entries}
}

func TestMarkPeriod(t *testing.T) {
	svc, repo := newAttendanceFixture("stu-1", "stu-2")

	record, err := svc.MarkPeriod(context.Background(), "teacher-1", markRequest(
		models.PeriodEntry{StudentID: "stu-1", Status: models.EntryStatusPresent},
		models.PeriodEntry{StudentID: "stu-2", Status: models.EntryStatusAbsent},
	))
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", record.RecordedBy)
	assert.Equal(t, 2, record.Period)
	require.Len(t, repo.upserted, 1)
	assert.Len(t, repo.upserted[0].Entries, 2)
}

func TestMarkPeriodRejectsInvalidStatus(t *testing.T) {
	svc, repo := newAttendanceFixture("stu-1")

	_, err := svc.MarkPeriod(context.Background(), "teacher-1", markRequest(
		models.PeriodEntry{StudentID: "stu-1", Status: "late"},
	))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestMarkPeriodRejectsDuplicateStudent(t *testing.T) {
	svc, _ := newAttendanceFixture("stu-1")

	_, err := svc.MarkPeriod(context.Background(), "teacher-1", markRequest(
		models.PeriodEntry{StudentID: "stu-1", Status: models.EntryStatusPresent},
		models.PeriodEntry{StudentID: "stu-1", Status: models.EntryStatusAbsent},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entry")
}

func TestMarkPeriodRejectsUnknownStudent(t *testing.T) {
	svc, _ := newAttendanceFixture("stu-1")

	_, err := svc.MarkPeriod(context.Background(), "teacher-1", markRequest(
		models.PeriodEntry{StudentID: "stu-1", Status: models.EntryStatusPresent},
		models.PeriodEntry{StudentID: "intruder", Status: models.EntryStatusPresent},
	))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMarkPeriodRejectsOutOfRangePeriod(t *testing.T) {
	svc, _ := newAttendanceFixture("stu-1")

	req := markRequest(models.PeriodEntry{StudentID: "stu-1", Status: models.EntryStatusPresent})
	req.Period = 6
	_, err := svc.MarkPeriod(context.Background(), "teacher-1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdatePeriod(t *testing.T) {
	svc, repo := newAttendanceFixture("stu-1", "stu-2")

	stored, err := svc.MarkPeriod(context.Background(), "teacher-1", markRequest(
		models.PeriodEntry{StudentID: "stu-1", Status: models.EntryStatusAbsent},
	))
	require.NoError(t, err)

	updated, err := svc.UpdatePeriod(context.Background(), stored.ID, "teacher-2", models.UpdatePeriodRequest{
		Entries: []models.PeriodEntry{{StudentID: "stu-1", Status: models.EntryStatusPresent}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Entries, 1)
	assert.Equal(t, models.EntryStatusPresent, updated.Entries[0].Status)
	require.Len(t, repo.replaced, 1)
}

func TestUpdatePeriodNotFound(t *testing.T) {
	svc, _ := newAttendanceFixture("stu-1")

	_, err := svc.UpdatePeriod(context.Background(), "missing", "teacher-1", models.UpdatePeriodRequest{
		Entries: []models.PeriodEntry{{StudentID: "stu-1", Status: models.EntryStatusPresent}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDeletePeriod(t *testing.T) {
	svc, repo := newAttendanceFixture("stu-1")

	stored, err := svc.MarkPeriod(context.Background(), "teacher-1", markRequest(
		models.PeriodEntry{StudentID: "stu-1", Status: models.EntryStatusPresent},
	))
	require.NoError(t, err)

	require.NoError(t, svc.DeletePeriod(context.Background(), stored.ID))
	assert.Contains(t, repo.deleted, stored.ID)

	err = svc.DeletePeriod(context.Background(), stored.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListDepartmentRejectsInvalidSemester(t *testing.T) {
	svc, _ := newAttendanceFixture()
	_, err := svc.ListDepartment(context.Background(), 0, models.AttendanceFilter{})
	require.Error(t, err)
}
