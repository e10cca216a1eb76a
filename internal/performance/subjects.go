package performance

import (
	"sort"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

// SubjectIndex looks subjects up by id.
type SubjectIndex map[string]models.Subject

// IndexSubjects builds a SubjectIndex.
func IndexSubjects(subjects []models.Subject) SubjectIndex {
	index := make(SubjectIndex, len(subjects))
	for _, subject := range subjects {
		index[subject.ID] = subject
	}
	return index
}

// Weight returns the coefficient of a subject; unknown subjects weigh 1.
func (idx SubjectIndex) Weight(subjectID string) float64 {
	subject, ok := idx[subjectID]
	if !ok {
		return 1
	}
	return subject.Weight()
}

// ApplicableSubjects returns the curriculum of a class ordered by code then id.
func ApplicableSubjects(subjects []models.Subject, class models.Class) []models.Subject {
	applicable := make([]models.Subject, 0, len(subjects))
	for _, subject := range subjects {
		if subject.AppliesTo(class) {
			applicable = append(applicable, subject)
		}
	}
	sortSubjects(applicable)
	return applicable
}

func sortSubjects(subjects []models.Subject) {
	sort.SliceStable(subjects, func(i, j int) bool {
		if subjects[i].Code != subjects[j].Code {
			return subjects[i].Code < subjects[j].Code
		}
		return subjects[i].ID < subjects[j].ID
	})
}

// filterQualifying keeps records whose subject is in the curriculum. A nil
// curriculum means the curriculum is unknown and every record qualifies.
func filterQualifying(records []models.ScoreRecord, curriculum SubjectIndex) (kept []models.ScoreRecord, ignored int) {
	if curriculum == nil {
		return records, 0
	}
	kept = make([]models.ScoreRecord, 0, len(records))
	for _, record := range records {
		if _, ok := curriculum[record.SubjectID]; ok {
			kept = append(kept, record)
			continue
		}
		ignored++
	}
	return kept, ignored
}

// ScoresInPeriod keeps records of the academic year, and of the month when one is set.
func ScoresInPeriod(records []models.ScoreRecord, period models.Period) []models.ScoreRecord {
	filtered := make([]models.ScoreRecord, 0, len(records))
	for _, record := range records {
		if !InAcademicYear(period.AcademicYear, record.CalendarYear, record.MonthNumber) {
			continue
		}
		if period.Month != nil && record.MonthNumber != *period.Month {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

// AttendanceInPeriod keeps attendance dated inside the period.
func AttendanceInPeriod(records []models.AttendanceRecord, period models.Period) []models.AttendanceRecord {
	filtered := make([]models.AttendanceRecord, 0, len(records))
	for _, record := range records {
		month := int(record.Date.Month())
		if !InAcademicYear(period.AcademicYear, record.Date.Year(), month) {
			continue
		}
		if period.Month != nil && month != *period.Month {
			continue
		}
		filtered = append(filtered, record)
	}
	return filtered
}

// sortScores orders records so every downstream sum runs in the same order.
func sortScores(records []models.ScoreRecord) []models.ScoreRecord {
	sorted := make([]models.ScoreRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.StudentID != b.StudentID {
			return a.StudentID < b.StudentID
		}
		if a.CalendarYear != b.CalendarYear {
			return a.CalendarYear < b.CalendarYear
		}
		if a.MonthNumber != b.MonthNumber {
			return a.MonthNumber < b.MonthNumber
		}
		if a.SubjectID != b.SubjectID {
			return a.SubjectID < b.SubjectID
		}
		return a.ID < b.ID
	})
	return sorted
}
