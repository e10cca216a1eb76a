package performance

import (
	"fmt"
	"time"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

func float(v float64) *float64 { return &v }

func ptrString(v string) *string { return &v }

func score(studentID, subjectID string, value float64, month, year int) models.ScoreRecord {
	return models.ScoreRecord{
		ID:           fmt.Sprintf("%s-%s-%d-%d", studentID, subjectID, year, month),
		StudentID:    studentID,
		SubjectID:    subjectID,
		ClassID:      "class-1",
		Score:        value,
		MaxScore:     50,
		MonthNumber:  month,
		CalendarYear: year,
	}
}

func subject(id string, coefficient *float64, applicability models.Applicability, levels ...int) models.Subject {
	return models.Subject{
		ID:            id,
		Code:          id,
		Name:          "Subject " + id,
		Coefficient:   coefficient,
		MaxScore:      50,
		GradeLevels:   levels,
		Applicability: applicability,
	}
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}
