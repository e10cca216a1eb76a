package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent    AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent     AttendanceStatus = "ABSENT"
	AttendanceStatusLate       AttendanceStatus = "LATE"
	AttendanceStatusExcused    AttendanceStatus = "EXCUSED"
	AttendanceStatusPermission AttendanceStatus = "PERMISSION"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused, AttendanceStatusPermission:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's status on one school day.
type AttendanceRecord struct {
	StudentID string           `db:"student_id" json:"student_id"`
	ClassID   string           `db:"class_id" json:"class_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// ClassDay is a date on which a class took attendance. Distinct class days
// are the school days of a period.
type ClassDay struct {
	ClassID string    `db:"class_id" json:"class_id"`
	Date    time.Time `db:"date" json:"date"`
}
