package performance

import (
	"math"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

// AverageResult is the rollup of a record set. The weighted sums feed Average;
// the raw sums are plain score totals and ignore coefficients.
// Average is unrounded; Classify rounds it for presentation.
type AverageResult struct {
	TotalScore             float64
	TotalMaxScore          float64
	TotalCoefficientWeight float64
	RawScore               float64
	RawMaxScore            float64
	RecordCount            int
	Average                *float64
}

// Percentage returns raw score over raw max score, so a coefficient-0 subject
// still shows its result.
func (r AverageResult) Percentage() *float64 {
	if r.RawMaxScore <= 0 {
		return nil
	}
	v := Round2(r.RawScore / r.RawMaxScore * 100)
	return &v
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

// Average computes Σ(score × coefficient) / Σ(coefficient) over records.
// Subjects missing from the index, or without a coefficient, weigh 1.
func Average(records []models.ScoreRecord, subjects SubjectIndex) AverageResult {
	var result AverageResult
	for _, record := range records {
		weight := subjects.Weight(record.SubjectID)
		if weight < 0 {
			weight = 0
		}
		result.TotalScore += record.Score * weight
		result.TotalMaxScore += record.MaxScore * weight
		result.TotalCoefficientWeight += weight
		result.RawScore += record.Score
		result.RawMaxScore += record.MaxScore
		result.RecordCount++
	}
	if result.TotalCoefficientWeight > 0 {
		avg := result.TotalScore / result.TotalCoefficientWeight
		result.Average = &avg
	}
	return result
}
