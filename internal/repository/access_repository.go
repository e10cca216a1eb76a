package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// AccessRepository answers who may read which performance records.
type AccessRepository struct {
	db *sqlx.DB
}

// NewAccessRepository constructs the repository.
func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

// StudentIDForUser returns the student linked to a user account, or "" when none.
func (r *AccessRepository) StudentIDForUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := r.db.GetContext(ctx, &id, "SELECT id FROM students WHERE user_id = $1 AND active = TRUE LIMIT 1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("student for user: %w", err)
	}
	return id, nil
}

// IsGuardianOf reports whether the user is a registered guardian of the student.
func (r *AccessRepository) IsGuardianOf(ctx context.Context, userID, studentID string) (bool, error) {
	return r.exists(ctx, "guardian link",
		"SELECT EXISTS (SELECT 1 FROM guardian_links WHERE guardian_user_id = $1 AND student_id = $2)",
		userID, studentID)
}

// TeachesClass reports whether the teacher is assigned to the class.
func (r *AccessRepository) TeachesClass(ctx context.Context, userID, classID string) (bool, error) {
	return r.exists(ctx, "teacher class",
		"SELECT EXISTS (SELECT 1 FROM teacher_assignments WHERE teacher_user_id = $1 AND class_id = $2)",
		userID, classID)
}

// TeachesStudent reports whether the student was ever enrolled in a class the teacher is assigned to.
func (r *AccessRepository) TeachesStudent(ctx context.Context, userID, studentID string) (bool, error) {
	return r.exists(ctx, "teacher student",
		"SELECT EXISTS (SELECT 1 FROM teacher_assignments ta JOIN enrollments e ON e.class_id = ta.class_id WHERE ta.teacher_user_id = $1 AND e.student_id = $2)",
		userID, studentID)
}

func (r *AccessRepository) exists(ctx context.Context, label, query string, args ...interface{}) (bool, error) {
	var ok bool
	if err := r.db.GetContext(ctx, &ok, query, args...); err != nil {
		return false, fmt.Errorf("check %s: %w", label, err)
	}
	return ok, nil
}
