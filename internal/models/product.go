package models

import "time"

// Role held by a principal in the supply chain.
type Role string

const (
	RoleNone          Role = "None"
	RoleManufacturer  Role = "Manufacturer"
	RoleRetailer      Role = "Retailer"
	RoleCustomer      Role = "Customer"
	RoleServiceCenter Role = "ServiceCenter"
)

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RoleManufacturer, RoleRetailer, RoleCustomer, RoleServiceCenter:
		return true
	}
	return false
}

// RoleAssignment maps a principal to its role. ServiceAuthorized is tracked
// separately from the role since authorization can be granted independently.
type RoleAssignment struct {
	Principal         string    `gorm:"primaryKey;size:64" json:"principal"`
	Role              Role      `gorm:"size:16;not null" json:"role"`
	ServiceAuthorized bool      `gorm:"not null;default:false" json:"service_authorized"`
	AssignedBy        string    `gorm:"size:64" json:"assigned_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (RoleAssignment) TableName() string { return "role_assignments" }

type WarrantyStatus string

const (
	WarrantyActive            WarrantyStatus = "Active"
	WarrantyExpired           WarrantyStatus = "Expired"
	WarrantyRevoked           WarrantyStatus = "Revoked"
	WarrantyClaimLimitReached WarrantyStatus = "ClaimLimitReached"
)

// WarrantyInfo is embedded in Product. StartDate is reset when a retailer
// sells to the first customer; the stored Status may lag wall-clock expiry,
// which is derived lazily at read time.
type WarrantyInfo struct {
	StartDate    time.Time      `json:"start_date"`
	DurationSecs int64          `json:"duration_secs"`
	MaxClaims    int            `json:"max_claims"`
	UsedClaims   int            `json:"used_claims"`
	Status       WarrantyStatus `gorm:"size:24" json:"status"`
}

// Expiry returns the end of the warranty window.
func (w WarrantyInfo) Expiry() time.Time {
	return w.StartDate.Add(time.Duration(w.DurationSecs) * time.Second)
}

// EffectiveStatus derives the status as of now without rewriting stored state.
func (w WarrantyInfo) EffectiveStatus(now time.Time) WarrantyStatus {
	if w.Status == WarrantyActive && now.After(w.Expiry()) {
		return WarrantyExpired
	}
	return w.Status
}

// Product is the canonical ledger record. ProductID, Manufacturer and
// ManufacturedAt are immutable after registration; there is no deletion path.
// Version backs the optimistic concurrency scheme: every mutation commits
// with a compare-and-swap on it.
type Product struct {
	ProductID      string       `gorm:"primaryKey;size:128" json:"product_id"`
	SerialNumber   string       `json:"serial_number"`
	Model          string       `json:"model"`
	Specifications string       `json:"specifications"`
	Manufacturer   string       `gorm:"size:64;not null" json:"manufacturer"`
	CurrentOwner   string       `gorm:"size:64;index;not null" json:"current_owner"`
	ManufacturedAt time.Time    `json:"manufactured_at"`
	HistoryPublic  bool         `gorm:"not null;default:true" json:"history_public"`
	Warranty       WarrantyInfo `gorm:"embedded;embeddedPrefix:warranty_" json:"warranty"`
	Version        int64        `gorm:"not null;default:0" json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// OwnershipRecord is one entry of a product's append-only transfer history.
// Records are never mutated after creation except for the Visible flag.
type OwnershipRecord struct {
	ProductID     string    `gorm:"primaryKey;size:128" json:"product_id"`
	Seq           int       `gorm:"primaryKey;autoIncrement:false" json:"seq"`
	Owner         string    `gorm:"size:64;not null" json:"owner"`
	OwnerRole     Role      `gorm:"size:16;not null" json:"owner_role"`
	TransferredAt time.Time `json:"transferred_at"`
	Details       string    `json:"details"`
	Visible       bool      `gorm:"not null;default:true" json:"visible"`
}

type ClaimStatus string

const (
	ClaimPending   ClaimStatus = "Pending"
	ClaimApproved  ClaimStatus = "Approved"
	ClaimRejected  ClaimStatus = "Rejected"
	ClaimCompleted ClaimStatus = "Completed"
)

// WarrantyClaim is one entry of a product's append-only claim sequence.
// ClaimID is positional, assigned from 0 per product. Customer-submitted
// claims start Pending; service-center log entries are created Completed.
type WarrantyClaim struct {
	ProductID     string      `gorm:"primaryKey;size:128" json:"product_id"`
	ClaimID       int         `gorm:"primaryKey;autoIncrement:false" json:"claim_id"`
	Customer      string      `gorm:"size:64;not null" json:"customer"`
	ServiceCenter string      `gorm:"size:64" json:"service_center"`
	Description   string      `json:"description"`
	ServiceNotes  string      `json:"service_notes"`
	SubmittedAt   time.Time   `json:"submitted_at"`
	ProcessedAt   *time.Time  `json:"processed_at,omitempty"`
	Status        ClaimStatus `gorm:"size:16;not null" json:"status"`
	Visible       bool        `gorm:"not null;default:true" json:"visible"`
}

// OwnedProduct is the reverse index principal -> owned product keys. Rows are
// moved in the same transaction as the ledger update they reflect.
type OwnedProduct struct {
	Principal string    `gorm:"primaryKey;size:64" json:"principal"`
	ProductID string    `gorm:"primaryKey;size:128" json:"product_id"`
	Since     time.Time `json:"since"`
}
