package models

// TrackedGradeLevels are the final grade levels where classes carry a track.
var TrackedGradeLevels = []int{11, 12}

// IsTrackedGradeLevel reports whether the grade level has a track dimension.
func IsTrackedGradeLevel(level int) bool {
	for _, tracked := range TrackedGradeLevels {
		if tracked == level {
			return true
		}
	}
	return false
}

// Class represents an academic class or section.
type Class struct {
	ID         string  `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	GradeLevel int     `db:"grade_level" json:"grade_level"`
	TrackID    *string `db:"track_id" json:"track_id,omitempty"`
}

// Track returns the class track or an empty string when the class has none.
func (c Class) Track() string {
	if c.TrackID == nil || !IsTrackedGradeLevel(c.GradeLevel) {
		return ""
	}
	return *c.TrackID
}
