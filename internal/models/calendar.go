package models

// DayStatus is the resolved attendance state of one student's day.
type DayStatus string

const (
	DayStatusPresent      DayStatus = "present"
	DayStatusAbsent       DayStatus = "absent"
	DayStatusClassLeave   DayStatus = "class-leave"
	DayStatusCollegeLeave DayStatus = "college-leave"
	DayStatusNotMarked    DayStatus = "not-marked"
)

// PeriodMark is one slot of a day's 5-period breakdown.
type PeriodMark struct {
	Period int         `json:"period"`
	Status EntryStatus `json:"status"`
}

// CalendarDay is one weekday entry of a reconstructed student calendar.
// Periods carries the filled 5-period breakdown only on present/absent days.
type CalendarDay struct {
	Date    Date         `json:"date"`
	Status  DayStatus    `json:"status"`
	Periods []PeriodMark `json:"periods,omitempty"`
}

// StudentCalendar is the full reconstructed view for a student and semester.
type StudentCalendar struct {
	Student  UserInfo      `json:"student"`
	Semester int           `json:"semester"`
	Days     []CalendarDay `json:"days"`
}
