package performance

// LetterGrade is the A–F classification of an average scored out of 50.
type LetterGrade string

const (
	GradeA LetterGrade = "A"
	GradeB LetterGrade = "B"
	GradeC LetterGrade = "C"
	GradeD LetterGrade = "D"
	GradeE LetterGrade = "E"
	GradeF LetterGrade = "F"
)

// PassingAverage is the lowest passing average (grade E).
const PassingAverage = 25.0

var gradeThresholds = []struct {
	min   float64
	grade LetterGrade
}{
	{min: 45, grade: GradeA},
	{min: 40, grade: GradeB},
	{min: 35, grade: GradeC},
	{min: 30, grade: GradeD},
	{min: 25, grade: GradeE},
}

// ClassifyGrade maps an average to its letter grade.
func ClassifyGrade(average float64) LetterGrade {
	for _, threshold := range gradeThresholds {
		if average >= threshold.min {
			return threshold.grade
		}
	}
	return GradeF
}

// IsPassing reports whether the average reaches grade E.
func IsPassing(average float64) bool {
	return average >= PassingAverage
}

// Classification is the displayable form of an average.
type Classification struct {
	Average    *float64
	GradeLevel *string
	IsPassing  bool
}

// Classify rounds an average for display and grades the displayed value.
// A nil average stays unclassified and is not failing.
func Classify(average *float64) Classification {
	if average == nil {
		return Classification{}
	}
	display := Round2(*average)
	grade := string(ClassifyGrade(display))
	return Classification{Average: &display, GradeLevel: &grade, IsPassing: IsPassing(display)}
}
