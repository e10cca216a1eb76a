package performance

import (
	"sort"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

// SummarizeAttendance counts statuses and computes
// (schoolDays − absent − permission) / schoolDays × 100, clamped to [0, 100].
// LATE and EXCUSED are counted but do not lower the rate.
func SummarizeAttendance(records []models.AttendanceRecord, schoolDays int) models.AttendanceSummary {
	summary := models.AttendanceSummary{SchoolDays: schoolDays}
	for _, record := range records {
		switch record.Status {
		case models.AttendanceStatusPresent:
			summary.Present++
		case models.AttendanceStatusAbsent:
			summary.Absent++
		case models.AttendanceStatusLate:
			summary.Late++
		case models.AttendanceStatusExcused:
			summary.Excused++
		case models.AttendanceStatusPermission:
			summary.Permission++
		default:
			continue
		}
		summary.TotalRecords++
	}
	if schoolDays <= 0 {
		return summary
	}
	rate := float64(schoolDays-summary.Absent-summary.Permission) / float64(schoolDays) * 100
	rate = Round2(clamp(rate, 0, 100))
	summary.AttendanceRate = &rate
	return summary
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SchoolDays counts the distinct dates in the period on which the class took attendance.
func SchoolDays(days []models.ClassDay, classID string, period models.Period) int {
	if classID == "" {
		return 0
	}
	seen := make(map[string]struct{})
	for _, day := range days {
		if day.ClassID != classID {
			continue
		}
		month := int(day.Date.Month())
		if !InAcademicYear(period.AcademicYear, day.Date.Year(), month) {
			continue
		}
		if period.Month != nil && month != *period.Month {
			continue
		}
		seen[day.Date.Format("2006-01-02")] = struct{}{}
	}
	return len(seen)
}

// StudentAttendanceInput is the snapshot for one student's attendance in a period.
type StudentAttendanceInput struct {
	StudentID   string
	Period      models.Period
	Enrollments []models.Enrollment
	Scores      []models.ScoreRecord
	Attendance  []models.AttendanceRecord
	ClassDays   []models.ClassDay
}

// BuildAttendanceSummary resolves the student's class for the period and
// summarizes attendance against the class's school days.
func BuildAttendanceSummary(in StudentAttendanceInput) models.AttendanceSummary {
	own := make([]models.AttendanceRecord, 0, len(in.Attendance))
	for _, record := range in.Attendance {
		if record.StudentID == "" || record.StudentID == in.StudentID {
			own = append(own, record)
		}
	}
	sort.SliceStable(own, func(i, j int) bool { return own[i].Date.Before(own[j].Date) })
	class, _ := ResolveClass(in.StudentID, in.Period.AcademicYear, in.Enrollments, in.Scores, own, nil)
	return SummarizeAttendance(AttendanceInPeriod(own, in.Period), SchoolDays(in.ClassDays, class.ID, in.Period))
}
