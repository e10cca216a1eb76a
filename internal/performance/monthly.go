package performance

import "github.com/noah-isme/sma-performance-api/internal/models"

// MonthlyInput is the snapshot for a student's academic-year timeline.
// ClassRecords holds every classmate's records for the year; when nil no
// class rank is computed.
type MonthlyInput struct {
	StudentID    string
	AcademicYear int
	Class        models.Class
	Subjects     []models.Subject
	Records      []models.ScoreRecord
	ClassRecords []models.ScoreRecord
}

// BuildMonthlySummaries always returns 12 slots in October→September order.
func BuildMonthlySummaries(in MonthlyInput) []models.MonthlySlot {
	var curriculum SubjectIndex
	totalSubjects := 0
	if len(in.Subjects) > 0 {
		applicable := ApplicableSubjects(in.Subjects, in.Class)
		curriculum = IndexSubjects(applicable)
		totalSubjects = len(applicable)
	}

	yearPeriod := models.Period{AcademicYear: in.AcademicYear}
	own, _ := filterQualifying(ScoresInPeriod(onlyStudent(in.Records, in.StudentID), yearPeriod), curriculum)
	byMonth := groupByMonth(sortScores(own))

	var classByMonth map[int][]models.ScoreRecord
	if in.ClassRecords != nil {
		classRecords, _ := filterQualifying(ScoresInPeriod(in.ClassRecords, yearPeriod), curriculum)
		classByMonth = groupByMonth(sortScores(classRecords))
	}

	slots := make([]models.MonthlySlot, 0, len(AcademicMonths))
	for _, month := range AcademicMonths {
		records := byMonth[month.Number]
		slot := models.MonthlySlot{
			Month:         month.KhmerName,
			MonthLabel:    month.Name,
			MonthNumber:   month.Number,
			Year:          CalendarYearOf(in.AcademicYear, month.Number),
			HasData:       len(records) > 0,
			SubjectCount:  distinctSubjects(records),
			TotalSubjects: totalSubjects,
		}
		slot.IsComplete = slot.HasData && slot.SubjectCount >= slot.TotalSubjects

		result := Average(records, curriculum)
		slot.TotalScore = Round2(result.TotalScore)
		slot.TotalMaxScore = Round2(result.TotalMaxScore)
		classification := Classify(result.Average)
		slot.Average = classification.Average
		slot.GradeLevel = classification.GradeLevel

		if classByMonth != nil && result.Average != nil {
			ranked, _ := RankRecords(classByMonth[month.Number], curriculum, nil)
			for _, entry := range ranked {
				if entry.StudentID == in.StudentID {
					rank := entry.Rank
					slot.ClassRank = &rank
					break
				}
			}
		}
		slots = append(slots, slot)
	}
	return slots
}

func onlyStudent(records []models.ScoreRecord, studentID string) []models.ScoreRecord {
	if studentID == "" {
		return records
	}
	kept := make([]models.ScoreRecord, 0, len(records))
	for _, record := range records {
		if record.StudentID == studentID {
			kept = append(kept, record)
		}
	}
	return kept
}

func groupByMonth(records []models.ScoreRecord) map[int][]models.ScoreRecord {
	grouped := make(map[int][]models.ScoreRecord)
	for _, record := range records {
		grouped[record.MonthNumber] = append(grouped[record.MonthNumber], record)
	}
	return grouped
}

func distinctSubjects(records []models.ScoreRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		seen[record.SubjectID] = struct{}{}
	}
	return len(seen)
}
