package performance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyGradeBoundaries(t *testing.T) {
	cases := []struct {
		average float64
		grade   LetterGrade
		passing bool
	}{
		{50, GradeA, true},
		{45, GradeA, true},
		{44.99, GradeB, true},
		{40, GradeB, true},
		{35, GradeC, true},
		{30, GradeD, true},
		{25, GradeE, true},
		{24.99, GradeF, false},
		{0, GradeF, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.grade, ClassifyGrade(tc.average), "average %v", tc.average)
		assert.Equal(t, tc.passing, IsPassing(tc.average), "average %v", tc.average)
	}
}

func TestClassifyGradeMonotonic(t *testing.T) {
	order := map[LetterGrade]int{GradeF: 0, GradeE: 1, GradeD: 2, GradeC: 3, GradeB: 4, GradeA: 5}
	previous := ClassifyGrade(0)
	for v := 0.0; v <= 50; v += 0.25 {
		current := ClassifyGrade(v)
		assert.GreaterOrEqual(t, order[current], order[previous])
		previous = current
	}
}

func TestClassifyUsesDisplayedValue(t *testing.T) {
	classification := Classify(float(24.996))
	assert.Equal(t, 25.0, *classification.Average)
	assert.Equal(t, "E", *classification.GradeLevel)
	assert.True(t, classification.IsPassing)

	empty := Classify(nil)
	assert.Nil(t, empty.Average)
	assert.Nil(t, empty.GradeLevel)
	assert.False(t, empty.IsPassing)
}
