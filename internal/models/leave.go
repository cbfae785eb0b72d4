package models

import "time"

// ClassLeave marks a semester-scoped non-instructional day. It never affects
// other semesters.
type ClassLeave struct {
	ID        string    `db:"id" json:"id"`
	Semester  int       `db:"semester" json:"semester"`
	Date      Date      `db:"date" json:"date"`
	Reason    string    `db:"reason" json:"reason"`
	MarkedBy  string    `db:"marked_by" json:"marked_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CollegeLeave marks a department-wide non-instructional day. Semester is
// populated only when the deployment scopes college leaves per semester.
type CollegeLeave struct {
	ID        string    `db:"id" json:"id"`
	Semester  *int      `db:"semester" json:"semester,omitempty"`
	Date      Date      `db:"date" json:"date"`
	Reason    string    `db:"reason" json:"reason"`
	MarkedBy  string    `db:"marked_by" json:"marked_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// LeaveFilter scopes leave listings.
type LeaveFilter struct {
	Semester *int
	DateFrom *Date
	DateTo   *Date
}
