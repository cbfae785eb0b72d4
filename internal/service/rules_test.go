package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
)

func defaultRules() Rules {
	return NewRules(config.AttendanceConfig{
		PresentThreshold:  3,
		CollegeLeaveScope: config.CollegeLeaveScopeGlobal,
		NoRecordPolicy:    config.NoRecordPolicyNotMarked,
	})
}

func marks(statuses map[int]models.EntryStatus) DayFacts {
	return DayFacts{DayMarked: true, Marks: statuses}
}

func TestResolveDayPresentAtThreshold(t *testing.T) {
	status, periods := defaultRules().ResolveDay(marks(map[int]models.EntryStatus{
		1: models.EntryStatusPresent,
		2: models.EntryStatusPresent,
		3: models.EntryStatusPresent,
		4: models.EntryStatusAbsent,
		5: models.EntryStatusAbsent,
	}))

	assert.Equal(t, models.DayStatusPresent, status)
	require.Len(t, periods, models.PeriodsPerDay)
}

func TestResolveDayAbsentBelowThreshold(t *testing.T) {
	status, _ := defaultRules().ResolveDay(marks(map[int]models.EntryStatus{
		1: models.EntryStatusPresent,
		2: models.EntryStatusPresent,
		3: models.EntryStatusAbsent,
		4: models.EntryStatusAbsent,
		5: models.EntryStatusAbsent,
	}))

	assert.Equal(t, models.DayStatusAbsent, status)
}

func TestResolveDayAutoFillsUnmarkedPeriodsAsAbsent(t *testing.T) {
	// Only two periods marked; the remaining three count absent, so the day
	// misses the threshold even though every mark is present.
	status, periods := defaultRules().ResolveDay(marks(map[int]models.EntryStatus{
		1: models.EntryStatusPresent,
		2: models.EntryStatusPresent,
	}))

	assert.Equal(t, models.DayStatusAbsent, status)
	require.Len(t, periods, models.PeriodsPerDay)
	assert.Equal(t, models.EntryStatusPresent, periods[0].Status)
	assert.Equal(t, models.EntryStatusAbsent, periods[2].Status)
	assert.Equal(t, models.EntryStatusAbsent, periods[4].Status)
}

func TestResolveDayCollegeLeaveOverridesMarks(t *testing.T) {
	facts := marks(map[int]models.EntryStatus{
		1: models.EntryStatusPresent, 2: models.EntryStatusPresent,
		3: models.EntryStatusPresent, 4: models.EntryStatusPresent,
		5: models.EntryStatusPresent,
	})
	facts.CollegeLeave = true

	status, periods := defaultRules().ResolveDay(facts)
	assert.Equal(t, models.DayStatusCollegeLeave, status)
	assert.Nil(t, periods)
}

func TestResolveDayCollegeLeaveOverridesClassLeave(t *testing.T) {
	status, _ := defaultRules().ResolveDay(DayFacts{CollegeLeave: true, ClassLeave: true})
	assert.Equal(t, models.DayStatusCollegeLeave, status)
}

func TestResolveDayClassLeaveOverridesMarks(t *testing.T) {
	facts := marks(map[int]models.EntryStatus{1: models.EntryStatusPresent})
	facts.ClassLeave = true

	status, periods := defaultRules().ResolveDay(facts)
	assert.Equal(t, models.DayStatusClassLeave, status)
	assert.Nil(t, periods)
}

func TestResolveDayUnmarked(t *testing.T) {
	status, periods := defaultRules().ResolveDay(DayFacts{})
	assert.Equal(t, models.DayStatusNotMarked, status)
	assert.Nil(t, periods)
}

func TestResolveDayUnmarkedCollegeLeavePolicy(t *testing.T) {
	rules := NewRules(config.AttendanceConfig{
		PresentThreshold:  3,
		CollegeLeaveScope: config.CollegeLeaveScopeGlobal,
		NoRecordPolicy:    config.NoRecordPolicyCollegeLeave,
	})

	status, _ := rules.ResolveDay(DayFacts{})
	assert.Equal(t, models.DayStatusCollegeLeave, status)
}

func TestCountsTowardTotal(t *testing.T) {
	assert.True(t, CountsTowardTotal(models.DayStatusPresent))
	assert.True(t, CountsTowardTotal(models.DayStatusAbsent))
	assert.False(t, CountsTowardTotal(models.DayStatusClassLeave))
	assert.False(t, CountsTowardTotal(models.DayStatusCollegeLeave))
	assert.False(t, CountsTowardTotal(models.DayStatusNotMarked))
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 100.0, Percentage(10, 10))
	assert.Equal(t, 66.67, Percentage(2, 3))
	assert.Equal(t, 33.33, Percentage(1, 3))
	assert.Equal(t, 0.0, Percentage(0, 20))
}
