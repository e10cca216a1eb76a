package performance

import (
	"sort"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

// TrackPromotions counts promotions and repeats and orders the history by time.
// The chain is not rejected when it is broken; breaks are reported as gaps.
func TrackPromotions(progressions []models.ClassProgression, classNames map[string]string) models.PromotionSummary {
	ordered := make([]models.ClassProgression, len(progressions))
	copy(ordered, progressions)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		if a.FromYear != b.FromYear {
			return a.FromYear < b.FromYear
		}
		return a.ID < b.ID
	})

	summary := models.PromotionSummary{
		History:      make([]models.ProgressionRecord, 0, len(ordered)),
		Gaps:         make([]models.ProgressionGap, 0),
		IsContinuous: true,
	}
	for i, p := range ordered {
		switch p.PromotionType {
		case models.PromotionAutomatic, models.PromotionManual:
			summary.Promotions++
		case models.PromotionRepeat:
			summary.Repeats++
		}
		summary.TotalProgressions++
		summary.History = append(summary.History, models.ProgressionRecord{
			FromYear:      p.FromYear,
			ToYear:        p.ToYear,
			FromClassID:   p.FromClassID,
			ToClassID:     p.ToClassID,
			FromClassName: classNames[p.FromClassID],
			ToClassName:   classNames[p.ToClassID],
			PromotionType: p.PromotionType,
			Timestamp:     p.Timestamp,
			Notes:         p.Notes,
		})
		if i == 0 {
			continue
		}
		prev := ordered[i-1]
		if p.FromYear != prev.ToYear || p.FromClassID != prev.ToClassID {
			summary.IsContinuous = false
			summary.Gaps = append(summary.Gaps, models.ProgressionGap{
				Index:            i,
				ExpectedFromYear: prev.ToYear,
				ActualFromYear:   p.FromYear,
				ExpectedClassID:  prev.ToClassID,
				ActualClassID:    p.FromClassID,
			})
		}
	}
	return summary
}
