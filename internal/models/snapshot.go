package models

// StudentSnapshot is every record a student computation reads, taken from one
// consistent view of the store.
type StudentSnapshot struct {
	Student         Student
	Classes         []Class
	Enrollments     []Enrollment
	Subjects        []Subject
	Scores          []ScoreRecord
	Attendance      []AttendanceRecord
	ClassDays       []ClassDay
	Progressions    []ClassProgression
	ClassmateScores []ScoreRecord
}

// ClassSnapshot is every record a class report reads for one period.
type ClassSnapshot struct {
	Class     Class
	Students  []Student
	Subjects  []Subject
	Scores    []ScoreRecord
	ClassDays []ClassDay
}
