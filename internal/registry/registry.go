package registry

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"provtrack/internal/models"
	"provtrack/internal/sentinel"
)

// Service is the role registry: it maps principals to supply-chain roles and
// to service-center authorization. It is the leaf dependency of every other
// component; the admin principal is injected at construction.
type Service struct {
	db    *gorm.DB
	lg    *zap.SugaredLogger
	admin string
}

func New(db *gorm.DB, lg *zap.SugaredLogger, admin string) *Service {
	return &Service{db: db, lg: lg, admin: admin}
}

// Admin returns the configured admin principal.
func (s *Service) Admin() string { return s.admin }

// AssignRole sets the role of a principal. Admin-only. Assigning the
// ServiceCenter role also grants the authorization flag in the same step.
func (s *Service) AssignRole(caller, principal string, role models.Role) error {
	if caller != s.admin {
		return fmt.Errorf("%w: only admin may assign roles", sentinel.ErrUnauthorized)
	}
	if principal == "" {
		return fmt.Errorf("%w: principal required", sentinel.ErrInvalidArgument)
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", sentinel.ErrInvalidArgument, role)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		ra := models.RoleAssignment{
			Principal:         principal,
			Role:              role,
			ServiceAuthorized: role == models.RoleServiceCenter,
			AssignedBy:        caller,
			UpdatedAt:         time.Now().UTC(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "principal"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "service_authorized", "assigned_by", "updated_at"}),
		}).Create(&ra).Error; err != nil {
			return err
		}
		return tx.Create(&models.AuditEvent{
			Principal: principal,
			Action:    models.EventRoleAssigned,
			Metadata:  models.Meta(map[string]any{"role": role, "assigned_by": caller}),
		}).Error
	})
}

// AddServiceCenter assigns the ServiceCenter role and authorization together.
func (s *Service) AddServiceCenter(caller, principal string) error {
	return s.AssignRole(caller, principal, models.RoleServiceCenter)
}

// RoleOf returns the principal's role, RoleNone when never assigned.
func (s *Service) RoleOf(principal string) (models.Role, error) {
	return RoleOf(s.db, principal)
}

// IsServiceCenter reports whether the principal is an authorized service center.
func (s *Service) IsServiceCenter(principal string) (bool, error) {
	return IsServiceCenter(s.db, principal)
}

// RoleOf reads a principal's role through the given handle, so ledger
// transactions can check roles inside their own transaction scope.
func RoleOf(db *gorm.DB, principal string) (models.Role, error) {
	var ra models.RoleAssignment
	err := db.First(&ra, "principal = ?", principal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	return ra.Role, nil
}

// IsServiceCenter reads the authorization flag through the given handle.
func IsServiceCenter(db *gorm.DB, principal string) (bool, error) {
	var ra models.RoleAssignment
	err := db.First(&ra, "principal = ?", principal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ra.ServiceAuthorized, nil
}
