package models

// ApplicabilityKind tags how a subject relates to grade levels and tracks.
type ApplicabilityKind string

const (
	// ApplicabilityUniversal applies at every grade level and track.
	ApplicabilityUniversal ApplicabilityKind = "UNIVERSAL"
	// ApplicabilityAllTracks applies at the subject's grade levels for any track.
	ApplicabilityAllTracks ApplicabilityKind = "ALL_TRACKS"
	// ApplicabilitySpecificTrack applies at the subject's grade levels for a single track.
	ApplicabilitySpecificTrack ApplicabilityKind = "SPECIFIC_TRACK"
)

// Applicability is a tagged variant; TrackID is only meaningful for SPECIFIC_TRACK.
type Applicability struct {
	Kind    ApplicabilityKind `json:"kind"`
	TrackID string            `json:"track_id,omitempty"`
}

// Universal builds a universal applicability.
func Universal() Applicability {
	return Applicability{Kind: ApplicabilityUniversal}
}

// AllTracks builds an applicability open to every track.
func AllTracks() Applicability {
	return Applicability{Kind: ApplicabilityAllTracks}
}

// SpecificTrack builds an applicability restricted to one track.
func SpecificTrack(trackID string) Applicability {
	return Applicability{Kind: ApplicabilitySpecificTrack, TrackID: trackID}
}

// Subject represents an academic subject and its weight in averages.
type Subject struct {
	ID            string        `db:"id" json:"id"`
	Code          string        `db:"code" json:"code"`
	Name          string        `db:"name" json:"name"`
	Category      string        `db:"category" json:"category"`
	Coefficient   *float64      `db:"coefficient" json:"coefficient,omitempty"`
	MaxScore      float64       `db:"max_score" json:"max_score"`
	GradeLevels   []int         `json:"grade_levels,omitempty"`
	Applicability Applicability `json:"applicability"`
}

// Weight returns the subject coefficient, defaulting to 1 when unset.
func (s Subject) Weight() float64 {
	if s.Coefficient == nil {
		return 1
	}
	return *s.Coefficient
}

// CoversGradeLevel reports whether the subject lists the grade level (an empty list covers all).
func (s Subject) CoversGradeLevel(level int) bool {
	if len(s.GradeLevels) == 0 {
		return true
	}
	for _, l := range s.GradeLevels {
		if l == level {
			return true
		}
	}
	return false
}

// AppliesTo reports whether the subject is part of the curriculum of the class.
func (s Subject) AppliesTo(class Class) bool {
	switch s.Applicability.Kind {
	case ApplicabilityUniversal:
		return true
	case ApplicabilitySpecificTrack:
		if !s.CoversGradeLevel(class.GradeLevel) || !IsTrackedGradeLevel(class.GradeLevel) {
			return false
		}
		return class.Track() == s.Applicability.TrackID
	default:
		return s.CoversGradeLevel(class.GradeLevel)
	}
}
