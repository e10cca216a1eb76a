package performance

import "github.com/noah-isme/sma-performance-api/internal/models"

// ClassReportInput is the snapshot a class report is computed from.
type ClassReportInput struct {
	Class    models.Class
	Period   models.Period
	Students []models.Student
	Subjects []models.Subject
	Records  []models.ScoreRecord
}

// BuildClassReport ranks the class for the period and aggregates statistics.
func BuildClassReport(in ClassReportInput) models.ClassReportSummary {
	var curriculum SubjectIndex
	if len(in.Subjects) > 0 {
		curriculum = IndexSubjects(ApplicableSubjects(in.Subjects, in.Class))
	}
	records, _ := filterQualifying(ScoresInPeriod(in.Records, in.Period), curriculum)

	names := make(map[string]string, len(in.Students))
	roster := make([]string, 0, len(in.Students))
	for _, student := range in.Students {
		names[student.ID] = student.FullName
		roster = append(roster, student.ID)
	}
	if len(roster) > 0 {
		records = recordsForStudents(records, names)
	}

	ranked, unranked := RankRecords(records, curriculum, roster)

	report := models.ClassReportSummary{
		ClassID:            in.Class.ID,
		ClassName:          in.Class.Name,
		Period:             in.Period,
		Students:           make([]models.StudentSummary, 0, len(ranked)),
		UnrankedStudentIDs: unranked,
	}

	var sum float64
	for i, entry := range ranked {
		avg := entry.Average
		classification := Classify(&avg)
		report.Students = append(report.Students, models.StudentSummary{
			StudentID:   entry.StudentID,
			StudentName: names[entry.StudentID],
			Average:     *classification.Average,
			GradeLevel:  *classification.GradeLevel,
			Rank:        entry.Rank,
			IsPassing:   classification.IsPassing,
		})
		if classification.IsPassing {
			report.Statistics.PassingCount++
		} else {
			report.Statistics.FailingCount++
		}
		sum += entry.Average
		if i == 0 {
			highest := Round2(entry.Average)
			report.Statistics.HighestAverage = &highest
		}
		if i == len(ranked)-1 {
			lowest := Round2(entry.Average)
			report.Statistics.LowestAverage = &lowest
		}
	}
	if n := len(ranked); n > 0 {
		classAverage := Round2(sum / float64(n))
		passRate := Round2(float64(report.Statistics.PassingCount) / float64(n) * 100)
		report.Statistics.ClassAverage = &classAverage
		report.Statistics.PassRate = &passRate
	}
	return report
}

func recordsForStudents(records []models.ScoreRecord, roster map[string]string) []models.ScoreRecord {
	kept := make([]models.ScoreRecord, 0, len(records))
	for _, record := range records {
		if _, ok := roster[record.StudentID]; ok {
			kept = append(kept, record)
		}
	}
	return kept
}
