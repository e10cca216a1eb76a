package performance

import (
	"sort"

	"github.com/noah-isme/sma-performance-api/internal/models"
)

// Candidate pairs a student with the averaging result for a period.
type Candidate struct {
	StudentID string
	Result    AverageResult
}

// RankedStudent is a ranked entry; Average is unrounded.
type RankedStudent struct {
	StudentID string
	Average   float64
	Rank      int
}

// Rank orders candidates by unrounded average, highest first, and assigns
// rank = position + 1. Ties keep their studentId order and still receive
// consecutive ranks. Candidates without an average are returned as unranked.
func Rank(candidates []Candidate) (ranked []RankedStudent, unranked []string) {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StudentID < ordered[j].StudentID
	})

	ranked = make([]RankedStudent, 0, len(ordered))
	unranked = make([]string, 0)
	for _, candidate := range ordered {
		if candidate.Result.Average == nil {
			unranked = append(unranked, candidate.StudentID)
			continue
		}
		ranked = append(ranked, RankedStudent{StudentID: candidate.StudentID, Average: *candidate.Result.Average})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Average > ranked[j].Average
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, unranked
}

// RankRecords groups records per student and ranks them. studentIDs lists the
// roster; when it is empty the roster is taken from the records.
func RankRecords(records []models.ScoreRecord, subjects SubjectIndex, studentIDs []string) (ranked []RankedStudent, unranked []string) {
	byStudent := make(map[string][]models.ScoreRecord)
	for _, record := range sortScores(records) {
		byStudent[record.StudentID] = append(byStudent[record.StudentID], record)
	}
	roster := studentIDs
	if len(roster) == 0 {
		roster = make([]string, 0, len(byStudent))
		for id := range byStudent {
			roster = append(roster, id)
		}
	}
	seen := make(map[string]struct{}, len(roster))
	candidates := make([]Candidate, 0, len(roster))
	for _, id := range roster {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, Candidate{StudentID: id, Result: Average(byStudent[id], subjects)})
	}
	return Rank(candidates)
}
