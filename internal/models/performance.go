package models

import "time"

// Period scopes a class report to an academic year and optionally one calendar month.
type Period struct {
	AcademicYear int  `json:"academicYear"`
	Month        *int `json:"month,omitempty"`
}

// StudentSummary is one ranked row of a class report.
type StudentSummary struct {
	StudentID   string  `json:"studentId"`
	StudentName string  `json:"studentName,omitempty"`
	Average     float64 `json:"average"`
	GradeLevel  string  `json:"gradeLevel"`
	Rank        int     `json:"rank"`
	IsPassing   bool    `json:"isPassing"`
}

// ClassStatistics aggregates the ranked students of a class report.
type ClassStatistics struct {
	ClassAverage   *float64 `json:"classAverage"`
	HighestAverage *float64 `json:"highestAverage"`
	LowestAverage  *float64 `json:"lowestAverage"`
	PassRate       *float64 `json:"passRate"`
	PassingCount   int      `json:"passingCount"`
	FailingCount   int      `json:"failingCount"`
}

// ClassReportSummary is the single-period class report.
type ClassReportSummary struct {
	ClassID            string           `json:"classId"`
	ClassName          string           `json:"className,omitempty"`
	Period             Period           `json:"period"`
	Students           []StudentSummary `json:"students"`
	Statistics         ClassStatistics  `json:"statistics"`
	UnrankedStudentIDs []string         `json:"unrankedStudentIds"`
}

// MonthlySlot is one position of the fixed October→September timeline.
type MonthlySlot struct {
	Month         string   `json:"month"`
	MonthLabel    string   `json:"monthLabel"`
	MonthNumber   int      `json:"monthNumber"`
	Year          int      `json:"year"`
	HasData       bool     `json:"hasData"`
	SubjectCount  int      `json:"subjectCount"`
	TotalSubjects int      `json:"totalSubjects"`
	IsComplete    bool     `json:"isComplete"`
	TotalScore    float64  `json:"totalScore"`
	TotalMaxScore float64  `json:"totalMaxScore"`
	Average       *float64 `json:"average"`
	ClassRank     *int     `json:"classRank"`
	GradeLevel    *string  `json:"gradeLevel"`
}

// AttendanceSummary counts statuses for a period and derives the attendance rate.
type AttendanceSummary struct {
	SchoolDays     int      `json:"schoolDays"`
	Present        int      `json:"present"`
	Absent         int      `json:"absent"`
	Late           int      `json:"late"`
	Excused        int      `json:"excused"`
	Permission     int      `json:"permission"`
	TotalRecords   int      `json:"totalRecords"`
	AttendanceRate *float64 `json:"attendanceRate"`
}

// ProgressionRecord is a class transition as shown on a transcript.
type ProgressionRecord struct {
	FromYear      int           `json:"fromYear"`
	ToYear        int           `json:"toYear"`
	FromClassID   string        `json:"fromClassId"`
	ToClassID     string        `json:"toClassId"`
	FromClassName string        `json:"fromClassName,omitempty"`
	ToClassName   string        `json:"toClassName,omitempty"`
	PromotionType PromotionType `json:"promotionType"`
	Timestamp     time.Time     `json:"timestamp"`
	Notes         *string       `json:"notes,omitempty"`
}

// ProgressionGap marks a transition that does not continue from the previous one.
type ProgressionGap struct {
	Index            int    `json:"index"`
	ExpectedFromYear int    `json:"expectedFromYear"`
	ActualFromYear   int    `json:"actualFromYear"`
	ExpectedClassID  string `json:"expectedClassId"`
	ActualClassID    string `json:"actualClassId"`
}

// PromotionSummary is the accumulated progression history of a student.
type PromotionSummary struct {
	Promotions        int                 `json:"promotions"`
	Repeats           int                 `json:"repeats"`
	TotalProgressions int                 `json:"totalProgressions"`
	History           []ProgressionRecord `json:"history"`
	IsContinuous      bool                `json:"isContinuous"`
	Gaps              []ProgressionGap    `json:"gaps"`
}

// SubjectResult is a subject-level rollup for one academic year.
type SubjectResult struct {
	SubjectID     string   `json:"subjectId"`
	SubjectName   string   `json:"subjectName"`
	Coefficient   float64  `json:"coefficient"`
	RecordCount   int      `json:"recordCount"`
	TotalScore    float64  `json:"totalScore"`
	TotalMaxScore float64  `json:"totalMaxScore"`
	Percentage    *float64 `json:"percentage"`
	Average       *float64 `json:"average"`
	GradeLevel    *string  `json:"gradeLevel"`
	IsPassing     bool     `json:"isPassing"`
}

// YearRecord is one academic year of a transcript.
type YearRecord struct {
	AcademicYear     int               `json:"academicYear"`
	Label            string            `json:"label"`
	ClassID          string            `json:"classId"`
	ClassName        string            `json:"className"`
	ClassGrade       int               `json:"classGrade"`
	Track            string            `json:"track,omitempty"`
	Subjects         []SubjectResult   `json:"subjects"`
	Attendance       AttendanceSummary `json:"attendance"`
	TotalScore       float64           `json:"totalScore"`
	TotalMaxScore    float64           `json:"totalMaxScore"`
	TotalCoefficient float64           `json:"totalCoefficient"`
	Average          *float64          `json:"average"`
	GradeLevel       *string           `json:"gradeLevel"`
	IsPassing        bool              `json:"isPassing"`
	IgnoredRecords   int               `json:"ignoredRecords"`
}

// TranscriptStudent identifies the transcript owner.
type TranscriptStudent struct {
	ID       string `json:"id"`
	NIS      string `json:"nis"`
	FullName string `json:"fullName"`
}

// TranscriptSummary carries the cross-year figures.
type TranscriptSummary struct {
	TotalYears        int      `json:"totalYears"`
	CurrentClass      *string  `json:"currentClass"`
	CurrentGrade      *int     `json:"currentGrade"`
	CumulativeAverage *float64 `json:"cumulativeAverage"`
	CumulativeGrade   *string  `json:"cumulativeGrade"`
	Promotions        int      `json:"promotions"`
	Repeats           int      `json:"repeats"`
	TotalProgressions int      `json:"totalProgressions"`
	IsContinuous      bool     `json:"isContinuous"`
}

// TranscriptData is the multi-year rollup for one student.
type TranscriptData struct {
	Student          TranscriptStudent   `json:"student"`
	Summary          TranscriptSummary   `json:"summary"`
	AcademicYears    []YearRecord        `json:"academicYears"`
	Progressions     []ProgressionRecord `json:"progressions"`
	MonthlySummaries []MonthlySlot       `json:"monthlySummaries"`
}
