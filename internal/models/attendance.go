package models

import "time"

// EntryStatus is the per-period mark recorded for a student.
type EntryStatus string

const (
	EntryStatusPresent EntryStatus = "present"
	EntryStatusAbsent  EntryStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusPresent, EntryStatusAbsent:
		return true
	default:
		return false
	}
}

// Bounds for semesters and daily periods.
const (
	MinSemester = 1
	MaxSemester = 8

	FirstPeriod   = 1
	LastPeriod    = 5
	PeriodsPerDay = 5
)

// PeriodEntry is a single student's mark inside a period record.
type PeriodEntry struct {
	StudentID string      `db:"student_id" json:"student_id"`
	Status    EntryStatus `db:"status" json:"status"`
}

// PeriodRecord holds the marks for one (semester, date, period) class session.
// Entries are always replaced wholesale; the store never patches them.
type PeriodRecord struct {
	ID         string        `db:"id" json:"id"`
	Semester   int           `db:"semester" json:"semester"`
	Date       Date          `db:"date" json:"date"`
	Period     int           `db:"period" json:"period"`
	RecordedBy string        `db:"recorded_by" json:"recorded_by"`
	Entries    []PeriodEntry `json:"entries"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentPeriodMark is a flattened row of one student's mark for a period.
type StudentPeriodMark struct {
	Semester int         `db:"semester" json:"semester"`
	Date     Date        `db:"date" json:"date"`
	Period   int         `db:"period" json:"period"`
	Status   EntryStatus `db:"status" json:"status"`
}

// AttendanceFilter scopes record listings.
type AttendanceFilter struct {
	Semester *int
	DateFrom *Date
	DateTo   *Date
}

// PeriodCompletion counts how often a period number was marked in a semester.
type PeriodCompletion struct {
	Period int `db:"period" json:"period"`
	Count  int `db:"count" json:"count"`
}

// MarkPeriodRequest carries a full class session to record.
type MarkPeriodRequest struct {
	Semester int           `json:"semester" validate:"required,min=1,max=8"`
	Date     Date          `json:"date" validate:"required"`
	Period   int           `json:"period" validate:"required,min=1,max=5"`
	Entries  []PeriodEntry `json:"entries" validate:"required,min=1,dive"`
}

// UpdatePeriodRequest replaces the entries of an existing record.
type UpdatePeriodRequest struct {
	Entries []PeriodEntry `json:"entries" validate:"required,min=1,dive"`
}
