package models

// ScoreRecord is one subject result for one student in one calendar month.
type ScoreRecord struct {
	ID           string  `db:"id" json:"id"`
	StudentID    string  `db:"student_id" json:"student_id"`
	SubjectID    string  `db:"subject_id" json:"subject_id"`
	ClassID      string  `db:"class_id" json:"class_id"`
	Score        float64 `db:"score" json:"score"`
	MaxScore     float64 `db:"max_score" json:"max_score"`
	MonthName    string  `db:"month_name" json:"month_name"`
	MonthNumber  int     `db:"month_number" json:"month_number"`
	CalendarYear int     `db:"calendar_year" json:"calendar_year"`
	Remarks      *string `db:"remarks" json:"remarks,omitempty"`
}

