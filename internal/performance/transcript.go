package performance

import (
	"sort"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

// TranscriptInput is everything a transcript is computed from. ClassmateScores,
// when set, holds the most recent year's class-wide records and enables
// monthly class ranks.
type TranscriptInput struct {
	Student         models.Student
	Classes         []models.Class
	Enrollments     []models.Enrollment
	Subjects        []models.Subject
	Scores          []models.ScoreRecord
	Attendance      []models.AttendanceRecord
	ClassDays       []models.ClassDay
	Progressions    []models.ClassProgression
	ClassmateScores []models.ScoreRecord
}

type yearContext struct {
	year       int
	class      models.Class
	knownClass bool
}

// BuildTranscript assembles the multi-year transcript, most recent year first.
func BuildTranscript(in TranscriptInput) models.TranscriptData {
	classes := make(map[string]models.Class, len(in.Classes))
	classNames := make(map[string]string, len(in.Classes))
	for _, class := range in.Classes {
		classes[class.ID] = class
		classNames[class.ID] = class.Name
	}

	scores := sortScores(onlyStudent(in.Scores, in.Student.ID))
	scoresByYear := make(map[int][]models.ScoreRecord)
	for _, record := range scores {
		if !ValidMonth(record.MonthNumber) {
			continue
		}
		year := AcademicYearOf(record.CalendarYear, record.MonthNumber)
		scoresByYear[year] = append(scoresByYear[year], record)
	}
	attendanceByYear := make(map[int][]models.AttendanceRecord)
	for _, record := range in.Attendance {
		if record.StudentID != "" && record.StudentID != in.Student.ID {
			continue
		}
		year := AcademicYearForDate(record.Date)
		attendanceByYear[year] = append(attendanceByYear[year], record)
	}

	years := collectYears(scoresByYear, attendanceByYear, in.Enrollments, in.Student.ID)

	transcript := models.TranscriptData{
		Student: models.TranscriptStudent{
			ID:       in.Student.ID,
			NIS:      in.Student.NIS,
			FullName: in.Student.FullName,
		},
		AcademicYears:    make([]models.YearRecord, 0, len(years)),
		MonthlySummaries: make([]models.MonthlySlot, 0),
	}

	var counted []models.ScoreRecord
	for _, year := range years {
		ctx := resolveYearClass(year, in.Enrollments, in.Student.ID, scoresByYear[year], attendanceByYear[year], classes)
		curriculum := yearCurriculum(in.Subjects, ctx)
		schoolDays := SchoolDays(in.ClassDays, ctx.class.ID, models.Period{AcademicYear: year})
		record, kept := buildYear(ctx, curriculum, scoresByYear[year], attendanceByYear[year], schoolDays)
		transcript.AcademicYears = append(transcript.AcademicYears, record)
		counted = append(counted, kept...)
	}

	cumulative := Average(counted, IndexSubjects(in.Subjects))
	cumulativeClass := Classify(cumulative.Average)

	promotions := TrackPromotions(onlyStudentProgressions(in.Progressions, in.Student.ID), classNames)
	transcript.Progressions = promotions.History

	transcript.Summary = models.TranscriptSummary{
		TotalYears:        len(transcript.AcademicYears),
		CumulativeAverage: cumulativeClass.Average,
		CumulativeGrade:   cumulativeClass.GradeLevel,
		Promotions:        promotions.Promotions,
		Repeats:           promotions.Repeats,
		TotalProgressions: promotions.TotalProgressions,
		IsContinuous:      promotions.IsContinuous,
	}

	if len(years) > 0 {
		latest := transcript.AcademicYears[0]
		if latest.ClassID != "" {
			name := latest.ClassName
			if name == "" {
				name = latest.ClassID
			}
			transcript.Summary.CurrentClass = &name
		}
		if latest.ClassGrade > 0 {
			grade := latest.ClassGrade
			transcript.Summary.CurrentGrade = &grade
		}
		ctx := resolveYearClass(years[0], in.Enrollments, in.Student.ID, scoresByYear[years[0]], attendanceByYear[years[0]], classes)
		monthly := MonthlyInput{
			StudentID:    in.Student.ID,
			AcademicYear: years[0],
			Class:        ctx.class,
			Records:      scoresByYear[years[0]],
			ClassRecords: in.ClassmateScores,
		}
		if ctx.knownClass {
			monthly.Subjects = in.Subjects
		}
		transcript.MonthlySummaries = BuildMonthlySummaries(monthly)
	}

	return transcript
}

func buildYear(ctx yearContext, curriculum []models.Subject, scores []models.ScoreRecord, attendance []models.AttendanceRecord, schoolDays int) (models.YearRecord, []models.ScoreRecord) {
	var index SubjectIndex
	if len(curriculum) > 0 {
		index = IndexSubjects(curriculum)
	}
	kept, ignored := filterQualifying(scores, index)
	if index == nil {
		curriculum = subjectsFromRecords(kept)
	}

	record := models.YearRecord{
		AcademicYear:   ctx.year,
		Label:          AcademicYearLabel(ctx.year),
		ClassID:        ctx.class.ID,
		ClassName:      ctx.class.Name,
		ClassGrade:     ctx.class.GradeLevel,
		Track:          ctx.class.Track(),
		Subjects:       make([]models.SubjectResult, 0, len(curriculum)),
		Attendance:     SummarizeAttendance(attendance, schoolDays),
		IgnoredRecords: ignored,
	}

	bySubject := make(map[string][]models.ScoreRecord)
	for _, score := range kept {
		bySubject[score.SubjectID] = append(bySubject[score.SubjectID], score)
	}
	for _, subject := range curriculum {
		result := Average(bySubject[subject.ID], index)
		classification := Classify(result.Average)
		record.Subjects = append(record.Subjects, models.SubjectResult{
			SubjectID:     subject.ID,
			SubjectName:   subject.Name,
			Coefficient:   subject.Weight(),
			RecordCount:   result.RecordCount,
			TotalScore:    Round2(result.RawScore),
			TotalMaxScore: Round2(result.RawMaxScore),
			Percentage:    result.Percentage(),
			Average:       classification.Average,
			GradeLevel:    classification.GradeLevel,
			IsPassing:     classification.IsPassing,
		})
	}

	overall := Average(kept, index)
	classification := Classify(overall.Average)
	record.TotalScore = Round2(overall.TotalScore)
	record.TotalMaxScore = Round2(overall.TotalMaxScore)
	record.TotalCoefficient = Round2(overall.TotalCoefficientWeight)
	record.Average = classification.Average
	record.GradeLevel = classification.GradeLevel
	record.IsPassing = classification.IsPassing
	return record, kept
}

// yearCurriculum returns the applicable subjects. When the class metadata is
// unknown the whole subject list applies.
func yearCurriculum(subjects []models.Subject, ctx yearContext) []models.Subject {
	if !ctx.knownClass {
		all := make([]models.Subject, len(subjects))
		copy(all, subjects)
		sortSubjects(all)
		return all
	}
	return ApplicableSubjects(subjects, ctx.class)
}

// ResolveClass returns the class a student attended in an academic year and
// whether its metadata is known. See resolveYearClass for the precedence.
func ResolveClass(studentID string, year int, enrollments []models.Enrollment, scores []models.ScoreRecord, attendance []models.AttendanceRecord, classes []models.Class) (models.Class, bool) {
	index := make(map[string]models.Class, len(classes))
	for _, class := range classes {
		index[class.ID] = class
	}
	period := models.Period{AcademicYear: year}
	ctx := resolveYearClass(year, enrollments, studentID, ScoresInPeriod(onlyStudent(scores, studentID), period), AttendanceInPeriod(attendance, period), index)
	return ctx.class, ctx.knownClass
}

// resolveYearClass picks the enrollment of the year, falling back to the class
// that carries most of the year's score records, then to attendance.
func resolveYearClass(year int, enrollments []models.Enrollment, studentID string, scores []models.ScoreRecord, attendance []models.AttendanceRecord, classes map[string]models.Class) yearContext {
	classID := ""
	for _, enrollment := range enrollments {
		if enrollment.AcademicYear != year || (enrollment.StudentID != "" && enrollment.StudentID != studentID) {
			continue
		}
		if classID == "" || enrollment.ClassID < classID {
			classID = enrollment.ClassID
		}
	}
	if classID == "" {
		counts := make(map[string]int)
		for _, score := range scores {
			counts[score.ClassID]++
		}
		if len(scores) == 0 {
			for _, record := range attendance {
				counts[record.ClassID]++
			}
		}
		best := 0
		for id, n := range counts {
			if id == "" {
				continue
			}
			if n > best || (n == best && id < classID) {
				classID, best = id, n
			}
		}
	}
	class, ok := classes[classID]
	if !ok {
		return yearContext{year: year, class: models.Class{ID: classID}}
	}
	return yearContext{year: year, class: class, knownClass: true}
}

func collectYears(scores map[int][]models.ScoreRecord, attendance map[int][]models.AttendanceRecord, enrollments []models.Enrollment, studentID string) []int {
	set := make(map[int]struct{})
	for year := range scores {
		set[year] = struct{}{}
	}
	for year := range attendance {
		set[year] = struct{}{}
	}
	for _, enrollment := range enrollments {
		if enrollment.StudentID == "" || enrollment.StudentID == studentID {
			set[enrollment.AcademicYear] = struct{}{}
		}
	}
	years := make([]int, 0, len(set))
	for year := range set {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// subjectsFromRecords stands in for a missing curriculum; names fall back to ids.
func subjectsFromRecords(records []models.ScoreRecord) []models.Subject {
	seen := make(map[string]struct{})
	subjects := make([]models.Subject, 0)
	for _, record := range records {
		if _, ok := seen[record.SubjectID]; ok {
			continue
		}
		seen[record.SubjectID] = struct{}{}
		subjects = append(subjects, models.Subject{ID: record.SubjectID, Code: record.SubjectID, Name: record.SubjectID})
	}
	sortSubjects(subjects)
	return subjects
}

func onlyStudentProgressions(progressions []models.ClassProgression, studentID string) []models.ClassProgression {
	kept := make([]models.ClassProgression, 0, len(progressions))
	for _, p := range progressions {
		if p.StudentID == "" || p.StudentID == studentID {
			kept = append(kept, p)
		}
	}
	return kept
}

// LatestAcademicYear returns the most recent academic year the student has
// scores, attendance or an enrollment in.
func LatestAcademicYear(studentID string, enrollments []models.Enrollment, scores []models.ScoreRecord, attendance []models.AttendanceRecord) (int, bool) {
	latest, found := 0, false
	consider := func(year int) {
		if !found || year > latest {
			latest, found = year, true
		}
	}
	for _, record := range scores {
		if (record.StudentID == "" || record.StudentID == studentID) && ValidMonth(record.MonthNumber) {
			consider(AcademicYearOf(record.CalendarYear, record.MonthNumber))
		}
	}
	for _, record := range attendance {
		if record.StudentID == "" || record.StudentID == studentID {
			consider(AcademicYearForDate(record.Date))
		}
	}
	for _, enrollment := range enrollments {
		if enrollment.StudentID == "" || enrollment.StudentID == studentID {
			consider(enrollment.AcademicYear)
		}
	}
	return latest, found
}

// HasAcademicYear reports whether the student has an enrollment, a score or an
// attendance record in the academic year.
func HasAcademicYear(studentID string, year int, enrollments []models.Enrollment, scores []models.ScoreRecord, attendance []models.AttendanceRecord) bool {
	for _, enrollment := range enrollments {
		if enrollment.AcademicYear == year && (enrollment.StudentID == "" || enrollment.StudentID == studentID) {
			return true
		}
	}
	for _, record := range scores {
		if (record.StudentID == "" || record.StudentID == studentID) && ValidMonth(record.MonthNumber) &&
			AcademicYearOf(record.CalendarYear, record.MonthNumber) == year {
			return true
		}
	}
	for _, record := range attendance {
		if (record.StudentID == "" || record.StudentID == studentID) && AcademicYearForDate(record.Date) == year {
			return true
		}
	}
	return false
}
