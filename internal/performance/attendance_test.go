package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

func attendanceRecords(statuses map[models.AttendanceStatus]int) []models.AttendanceRecord {
	var records []models.AttendanceRecord
	d := 1
	for _, status := range []models.AttendanceStatus{
		models.AttendanceStatusPresent,
		models.AttendanceStatusAbsent,
		models.AttendanceStatusLate,
		models.AttendanceStatusExcused,
		models.AttendanceStatusPermission,
	} {
		for i := 0; i < statuses[status]; i++ {
			records = append(records, models.AttendanceRecord{StudentID: "s1", ClassID: "class-1", Date: day(2024, 10, d), Status: status})
			d++
		}
	}
	return records
}

func TestSummarizeAttendanceRate(t *testing.T) {
	records := attendanceRecords(map[models.AttendanceStatus]int{
		models.AttendanceStatusPresent:    15,
		models.AttendanceStatusAbsent:     2,
		models.AttendanceStatusPermission: 1,
		models.AttendanceStatusLate:       2,
	})
	summary := SummarizeAttendance(records, 20)
	require.NotNil(t, summary.AttendanceRate)
	assert.Equal(t, 85.0, *summary.AttendanceRate)
	assert.Equal(t, 15, summary.Present)
	assert.Equal(t, 2, summary.Late)
	assert.Equal(t, 20, summary.TotalRecords)
}

func TestSummarizeAttendanceBounds(t *testing.T) {
	records := attendanceRecords(map[models.AttendanceStatus]int{models.AttendanceStatusAbsent: 8})
	summary := SummarizeAttendance(records, 5)
	require.NotNil(t, summary.AttendanceRate)
	assert.Equal(t, 0.0, *summary.AttendanceRate)

	summary = SummarizeAttendance(nil, 10)
	require.NotNil(t, summary.AttendanceRate)
	assert.Equal(t, 100.0, *summary.AttendanceRate)

	summary = SummarizeAttendance(records, 0)
	assert.Nil(t, summary.AttendanceRate)
	assert.Equal(t, 8, summary.Absent)
}

func TestSummarizeAttendanceSkipsUnknownStatus(t *testing.T) {
	records := []models.AttendanceRecord{{StudentID: "s1", Date: day(2024, 10, 1), Status: "HOLIDAY"}}
	summary := SummarizeAttendance(records, 1)
	assert.Equal(t, 0, summary.TotalRecords)
}

func TestSchoolDaysCountsDistinctClassDates(t *testing.T) {
	days := []models.ClassDay{
		{ClassID: "c1", Date: day(2024, 10, 1)},
		{ClassID: "c1", Date: day(2024, 10, 1)},
		{ClassID: "c1", Date: day(2024, 11, 4)},
		{ClassID: "c2", Date: day(2024, 10, 2)},
		{ClassID: "c1", Date: day(2025, 10, 1)},
	}
	assert.Equal(t, 2, SchoolDays(days, "c1", models.Period{AcademicYear: 2024}))
	october := 10
	assert.Equal(t, 1, SchoolDays(days, "c1", models.Period{AcademicYear: 2024, Month: &october}))
	assert.Equal(t, 0, SchoolDays(days, "", models.Period{AcademicYear: 2024}))
}

func TestBuildAttendanceSummary(t *testing.T) {
	records := attendanceRecords(map[models.AttendanceStatus]int{
		models.AttendanceStatusPresent:    17,
		models.AttendanceStatusAbsent:     2,
		models.AttendanceStatusPermission: 1,
	})
	records = append(records, models.AttendanceRecord{StudentID: "s2", ClassID: "class-1", Date: day(2024, 10, 2), Status: models.AttendanceStatusAbsent})

	var days []models.ClassDay
	for d := 1; d <= 20; d++ {
		days = append(days, models.ClassDay{ClassID: "class-1", Date: day(2024, 10, d)})
	}
	summary := BuildAttendanceSummary(StudentAttendanceInput{
		StudentID:   "s1",
		Period:      models.Period{AcademicYear: 2024},
		Enrollments: []models.Enrollment{{StudentID: "s1", ClassID: "class-1", AcademicYear: 2024}},
		Attendance:  records,
		ClassDays:   days,
	})
	assert.Equal(t, 20, summary.SchoolDays)
	assert.Equal(t, 2, summary.Absent)
	require.NotNil(t, summary.AttendanceRate)
	assert.Equal(t, 85.0, *summary.AttendanceRate)
}
