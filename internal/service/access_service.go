package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-performance-api/internal/models"
	appErrors "github.com/noah-isme/sma-performance-api/pkg/errors"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

type accessStore interface {
	StudentIDForUser(ctx context.Context, userID string) (string, error)
	IsGuardianOf(ctx context.Context, userID, studentID string) (bool, error)
	TeachesClass(ctx context.Context, userID, classID string) (bool, error)
	TeachesStudent(ctx context.Context, userID, studentID string) (bool, error)
}

// AccessService decides which students and classes an actor may read.
//
// Administrators read everything. Teachers read the classes they are assigned
// to and the students enrolled in them. Students read only their own records
// and parents only those of the students they are linked to. Class reports are
// restricted to staff.
type AccessService struct {
	store  accessStore
	logger *zap.Logger
}

// NewAccessService constructs the access service.
func NewAccessService(store accessStore, logger *zap.Logger) *AccessService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccessService{store: store, logger: logger}
}

// AuthorizeStudent returns ErrForbidden unless the actor may read the student.
func (s *AccessService) AuthorizeStudent(ctx context.Context, actor Actor, studentID string) error {
	if actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	var (
		allowed bool
		err     error
	)
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		allowed, err = s.store.TeachesStudent(ctx, actor.UserID, studentID)
	case models.RoleStudent:
		var own string
		own, err = s.store.StudentIDForUser(ctx, actor.UserID)
		allowed = own != "" && own == studentID
	case models.RoleParent:
		allowed, err = s.store.IsGuardianOf(ctx, actor.UserID, studentID)
	}
	if err != nil {
		s.logger.Error("student access check failed", zap.String("user_id", actor.UserID), zap.String("student_id", studentID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check access")
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this student")
	}
	return nil
}

// AuthorizeClass returns ErrForbidden unless the actor may read the class.
func (s *AccessService) AuthorizeClass(ctx context.Context, actor Actor, classID string) error {
	if actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	if !actor.Role.IsStaff() {
		return appErrors.Clone(appErrors.ErrForbidden, "class reports are limited to staff")
	}
	switch actor.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return nil
	case models.RoleTeacher:
		allowed, err := s.store.TeachesClass(ctx, actor.UserID, classID)
		if err != nil {
			s.logger.Error("class access check failed", zap.String("user_id", actor.UserID), zap.String("class_id", classID), zap.Error(err))
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check access")
		}
		if allowed {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not allowed to view this class")
}
