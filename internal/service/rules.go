package service

import (
	"math"

	"github.com/jaseeljazc/campuss-atd/internal/models"
	"github.com/jaseeljazc/campuss-atd/pkg/config"
)

// Rules holds the day-resolution policy. Built once from configuration at
// startup and shared by the calendar and analytics paths so both always agree.
type Rules struct {
	PresentThreshold  int
	CollegeLeaveScope string
	NoRecordPolicy    string
}

// NewRules derives the resolver policy from configuration.
func NewRules(cfg config.AttendanceConfig) Rules {
	return Rules{
		PresentThreshold:  cfg.PresentThreshold,
		CollegeLeaveScope: cfg.CollegeLeaveScope,
		NoRecordPolicy:    cfg.NoRecordPolicy,
	}
}

// DayFacts is everything known about one student's single day before
// resolution. Marks maps period number to the student's recorded status;
// DayMarked is true when the class had any period record that day, whether or
// not the student appears in it.
type DayFacts struct {
	CollegeLeave bool
	ClassLeave   bool
	DayMarked    bool
	Marks        map[int]models.EntryStatus
}

// ResolveDay collapses one day's facts into a single status. Precedence is
// college-leave, then class-leave, then recorded marks. On marked days every
// period the student has no mark for counts as absent, and the day is present
// only when at least PresentThreshold periods are present. The returned
// period breakdown is non-nil only on marked days.
func (r Rules) ResolveDay(facts DayFacts) (models.DayStatus, []models.PeriodMark) {
	if facts.CollegeLeave {
		return models.DayStatusCollegeLeave, nil
	}
	if facts.ClassLeave {
		return models.DayStatusClassLeave, nil
	}
	if !facts.DayMarked {
		if r.NoRecordPolicy == config.NoRecordPolicyCollegeLeave {
			return models.DayStatusCollegeLeave, nil
		}
		return models.DayStatusNotMarked, nil
	}

	periods := make([]models.PeriodMark, 0, models.PeriodsPerDay)
	present := 0
	for p := models.FirstPeriod; p <= models.LastPeriod; p++ {
		status, ok := facts.Marks[p]
		if !ok {
			status = models.EntryStatusAbsent
		}
		if status == models.EntryStatusPresent {
			present++
		}
		periods = append(periods, models.PeriodMark{Period: p, Status: status})
	}

	if present >= r.PresentThreshold {
		return models.DayStatusPresent, periods
	}
	return models.DayStatusAbsent, periods
}

// CountsTowardTotal reports whether a resolved status contributes a day to the
// attendance denominator. Leave days and unmarked days are excluded.
func CountsTowardTotal(status models.DayStatus) bool {
	return status == models.DayStatusPresent || status == models.DayStatusAbsent
}

// Percentage computes presentDays/totalDays*100 rounded to two decimals. A
// zero denominator yields 0, never NaN.
func Percentage(presentDays, totalDays int) float64 {
	if totalDays == 0 {
		return 0
	}
	return math.Round(float64(presentDays)/float64(totalDays)*10000) / 100
}
