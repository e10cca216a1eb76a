package models

import "time"

// PromotionType describes how a student moved between years.
type PromotionType string

const (
	PromotionAutomatic PromotionType = "AUTOMATIC"
	PromotionManual    PromotionType = "MANUAL"
	PromotionRepeat    PromotionType = "REPEAT"
)

// ClassProgression records one year-to-year class transition.
type ClassProgression struct {
	ID            string        `db:"id" json:"id"`
	StudentID     string        `db:"student_id" json:"student_id"`
	FromYear      int           `db:"from_year" json:"from_year"`
	ToYear        int           `db:"to_year" json:"to_year"`
	FromClassID   string        `db:"from_class_id" json:"from_class_id"`
	ToClassID     string        `db:"to_class_id" json:"to_class_id"`
	PromotionType PromotionType `db:"promotion_type" json:"promotion_type"`
	Timestamp     time.Time     `db:"created_at" json:"timestamp"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
}
