// Package performance turns raw score, attendance and progression records into
// averages, letter grades, ranks, monthly timelines and transcripts. Every
// function is a pure computation over the records it is handed.
package performance

import (
	"fmt"
	"time"
)

// AcademicMonth is one slot of the institution's academic-year calendar.
type AcademicMonth struct {
	Number    int
	Name      string
	KhmerName string
}

// AcademicMonths lists the academic year in canonical order, October to September.
var AcademicMonths = [12]AcademicMonth{
	{Number: 10, Name: "October", KhmerName: "តុលា"},
	{Number: 11, Name: "November", KhmerName: "វិច្ឆិកា"},
	{Number: 12, Name: "December", KhmerName: "ធ្នូ"},
	{Number: 1, Name: "January", KhmerName: "មករា"},
	{Number: 2, Name: "February", KhmerName: "កុម្ភៈ"},
	{Number: 3, Name: "March", KhmerName: "មីនា"},
	{Number: 4, Name: "April", KhmerName: "មេសា"},
	{Number: 5, Name: "May", KhmerName: "ឧសភា"},
	{Number: 6, Name: "June", KhmerName: "មិថុនា"},
	{Number: 7, Name: "July", KhmerName: "កក្កដា"},
	{Number: 8, Name: "August", KhmerName: "សីហា"},
	{Number: 9, Name: "September", KhmerName: "កញ្ញា"},
}

// academicYearStartMonth is the calendar month that opens an academic year.
const academicYearStartMonth = 10

// ValidMonth reports whether m is a calendar month number.
func ValidMonth(m int) bool {
	return m >= 1 && m <= 12
}

// MonthByNumber returns the academic month for a calendar month number.
func MonthByNumber(m int) (AcademicMonth, bool) {
	for _, month := range AcademicMonths {
		if month.Number == m {
			return month, true
		}
	}
	return AcademicMonth{}, false
}

// AcademicYearOf maps a calendar (year, month) to its academic year.
func AcademicYearOf(calendarYear, month int) int {
	if month >= academicYearStartMonth {
		return calendarYear
	}
	return calendarYear - 1
}

// CalendarYearOf returns the calendar year in which month falls inside academicYear.
func CalendarYearOf(academicYear, month int) int {
	if month >= academicYearStartMonth {
		return academicYear
	}
	return academicYear + 1
}

// InAcademicYear applies (year = Y AND month >= 10) OR (year = Y+1 AND month <= 9).
func InAcademicYear(academicYear, calendarYear, month int) bool {
	if !ValidMonth(month) {
		return false
	}
	if month >= academicYearStartMonth {
		return calendarYear == academicYear
	}
	return calendarYear == academicYear+1
}

// AcademicYearForDate returns the academic year containing t.
func AcademicYearForDate(t time.Time) int {
	return AcademicYearOf(t.Year(), int(t.Month()))
}

// AcademicYearLabel renders an academic year as "2024-2025".
func AcademicYearLabel(academicYear int) string {
	return fmt.Sprintf("%d-%d", academicYear, academicYear+1)
}
