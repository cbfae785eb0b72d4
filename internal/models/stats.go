package models

// SemesterStats aggregates one student's resolved days within a semester.
// Percentage is presentDays/totalDays*100 rounded to two decimals and 0 when
// totalDays is 0.
type SemesterStats struct {
	Semester    int     `json:"semester"`
	TotalDays   int     `json:"total_days"`
	PresentDays int     `json:"present_days"`
	AbsentDays  int     `json:"absent_days"`
	Percentage  float64 `json:"percentage"`
}

// StudentAttendanceRow is one row of the cross-student attendance list.
type StudentAttendanceRow struct {
	StudentID  string  `json:"student_id"`
	FullName   string  `json:"full_name"`
	Email      string  `json:"email"`
	RollNumber string  `json:"roll_number,omitempty"`
	Semester   int     `json:"semester"`
	Department string  `json:"department"`
	TotalDays  int     `json:"total_days"`
	PresentDays int    `json:"present_days"`
	AbsentDays int     `json:"absent_days"`
	Percentage float64 `json:"percentage"`
}

// SemesterSummary reports operational aggregates for one semester.
type SemesterSummary struct {
	Semester         int         `json:"semester"`
	TotalStudents    int         `json:"total_students"`
	TotalDays        int         `json:"total_days"`
	AveragePercentage float64    `json:"average_percentage"`
	PeriodCompletion map[int]int `json:"period_completion"`
}

// StudentAttendanceReport couples a student's own marks with their stats.
type StudentAttendanceReport struct {
	Student    UserInfo              `json:"student"`
	Records    []StudentPeriodMark   `json:"records"`
	Statistics map[int]SemesterStats `json:"statistics"`
}
