package dto

import "github.com/noah-isme/sma-performance-api/internal/models"

// PeriodQuery binds the academic_year and month query parameters.
type PeriodQuery struct {
	AcademicYear *int `form:"academic_year" validate:"omitempty,gte=1900,lte=9999"`
	Month        *int `form:"month" validate:"omitempty,gte=1,lte=12"`
}

// Period resolves the query against the fallback academic year.
func (q PeriodQuery) Period(fallbackYear int) models.Period {
	year := fallbackYear
	if q.AcademicYear != nil {
		year = *q.AcademicYear
	}
	return models.Period{AcademicYear: year, Month: q.Month}
}

// CacheMeta reports whether a response was served from cache.
type CacheMeta struct {
	CacheHit bool `json:"cacheHit"`
}
