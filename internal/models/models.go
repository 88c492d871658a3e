package models

import "time"

// User is a login account. Its ID doubles as the domain principal identity
// carried in JWT subjects and referenced by the role registry, the product
// ledger and the audit trail.
type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Session struct {
	JTI       string     `gorm:"primaryKey;size:64" json:"jti"`
	UserID    string     `gorm:"size:64;index;not null" json:"user_id"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AuditEvent is one entry of the append-only domain event log. Events are
// written in the same transaction as the state change that caused them.
type AuditEvent struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID string    `gorm:"size:128;index" json:"product_id,omitempty"`
	Principal string    `gorm:"size:64;index" json:"principal"`
	Action    string    `gorm:"not null" json:"action"`
	Metadata  JSONB     `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// Domain event names, mirrored in the audit_events.action column.
const (
	EventProductRegistered      = "ProductRegistered"
	EventOwnershipTransferred   = "OwnershipTransferred"
	EventWarrantyClaimSubmitted = "WarrantyClaimSubmitted"
	EventWarrantyClaimProcessed = "WarrantyClaimProcessed"
	EventWarrantyStatusChanged  = "WarrantyStatusChanged"
	EventRoleAssigned           = "RoleAssigned"
)
