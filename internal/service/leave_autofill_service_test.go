package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
)

func newAutofillService(leaves *leaveRepoStub, attendance *attendanceRepoStub, scope string) *LeaveAutofillService {
	return NewLeaveAutofillService(leaves, attendance, NewMetricsService(), scope, nil)
}

func TestAutofillFillsUnmarkedWeekday(t *testing.T) {
	leaves := &leaveRepoStub{}
	svc := newAutofillService(leaves, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	require.NoError(t, svc.Run(context.Background(), tuesday))
	require.Len(t, leaves.created, 1)
	assert.Equal(t, tuesday, leaves.created[0].Date)
	assert.Equal(t, autofillActor, leaves.created[0].MarkedBy)
	assert.Nil(t, leaves.created[0].Semester)
}

func TestAutofillSkipsWeekend(t *testing.T) {
	leaves := &leaveRepoStub{}
	svc := newAutofillService(leaves, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	require.NoError(t, svc.Run(context.Background(), sunday))
	assert.Empty(t, leaves.created)
}

func TestAutofillSkipsMarkedDay(t *testing.T) {
	leaves := &leaveRepoStub{}
	attendance := &attendanceRepoStub{existing: map[string]bool{tuesday.String(): true}}
	svc := newAutofillService(leaves, attendance, config.CollegeLeaveScopeGlobal)

	require.NoError(t, svc.Run(context.Background(), tuesday))
	assert.Empty(t, leaves.created)
}

func TestAutofillIsIdempotent(t *testing.T) {
	leaves := &leaveRepoStub{}
	svc := newAutofillService(leaves, &attendanceRepoStub{}, config.CollegeLeaveScopeGlobal)

	require.NoError(t, svc.Run(context.Background(), tuesday))
	require.NoError(t, svc.Run(context.Background(), tuesday))
	assert.Len(t, leaves.created, 1)
}

func TestAutofillPerSemesterSkipsClassLeave(t *testing.T) {
	leaves := &leaveRepoStub{classRows: map[string]*models.ClassLeave{
		tuesday.String(): {Semester: 3, Date: tuesday},
	}}
	svc := newAutofillService(leaves, &attendanceRepoStub{}, config.CollegeLeaveScopePerSemester)

	require.NoError(t, svc.Run(context.Background(), tuesday))

	// The stub keys class leaves by date alone, so every semester sees the
	// leave and nothing gets created.
	assert.Empty(t, leaves.created)
}

func TestPreviousWeekday(t *testing.T) {
	assert.Equal(t, friday, previousWeekday(nextMon))
	assert.Equal(t, monday, previousWeekday(tuesday))
}
