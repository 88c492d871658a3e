package provenance

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"provtrack/internal/models"
	"provtrack/internal/registry"
	"provtrack/internal/sentinel"
)

// RegisterProductInput carries the manufacturer-supplied product facts.
type RegisterProductInput struct {
	ProductID      string `json:"product_id"`
	SerialNumber   string `json:"serial_number"`
	Model          string `json:"model"`
	Specifications string `json:"specifications"`
	WarrantyDays   int    `json:"warranty_days"`
	MaxClaims      int    `json:"max_claims"`
}

// RegisterProduct creates the ledger record for a new product. This is the
// sole creation path; there is no deletion path, provenance records are
// permanent. The caller must hold the Manufacturer role and becomes the
// initial owner.
func (s *Service) RegisterProduct(caller string, in RegisterProductInput) (*models.Product, error) {
	if in.ProductID == "" {
		return nil, fmt.Errorf("%w: product id required", sentinel.ErrInvalidArgument)
	}
	if in.WarrantyDays <= 0 {
		return nil, fmt.Errorf("%w: warranty duration must be positive", sentinel.ErrInvalidArgument)
	}
	if in.MaxClaims < 0 {
		return nil, fmt.Errorf("%w: max claims must not be negative", sentinel.ErrInvalidArgument)
	}

	now := s.now()
	p := &models.Product{
		ProductID:      in.ProductID,
		SerialNumber:   in.SerialNumber,
		Model:          in.Model,
		Specifications: in.Specifications,
		Manufacturer:   caller,
		CurrentOwner:   caller,
		ManufacturedAt: now,
		HistoryPublic:  true,
		Warranty: models.WarrantyInfo{
			StartDate:    now,
			DurationSecs: int64(in.WarrantyDays) * 86400,
			MaxClaims:    in.MaxClaims,
			Status:       models.WarrantyActive,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		role, err := registry.RoleOf(tx, caller)
		if err != nil {
			return err
		}
		if role != models.RoleManufacturer {
			return fmt.Errorf("%w: caller is not a manufacturer", sentinel.ErrUnauthorized)
		}
		// the primary key enforces uniqueness; a racing duplicate
		// registration surfaces here as ErrDuplicatedKey
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: product %s", sentinel.ErrAlreadyExists, in.ProductID)
			}
			return err
		}
		if err := tx.Create(&models.OwnershipRecord{
			ProductID:     in.ProductID,
			Seq:           0,
			Owner:         caller,
			OwnerRole:     models.RoleManufacturer,
			TransferredAt: now,
			Details:       "Initial manufacturing",
			Visible:       true,
		}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.OwnedProduct{Principal: caller, ProductID: in.ProductID, Since: now}).Error; err != nil {
			return err
		}
		return recordEvent(tx, in.ProductID, caller, models.EventProductRegistered, map[string]any{
			"manufacturer": caller,
			"model":        in.Model,
		})
	})
	if err != nil {
		return nil, err
	}
	s.lg.Infow("product registered", "product_id", in.ProductID, "manufacturer", caller)
	return p, nil
}

// TransferToRetailer moves the product from its manufacturer to a retailer.
func (s *Service) TransferToRetailer(caller, productID, retailer, details string) error {
	return s.transfer(caller, productID, retailer, details, models.RoleManufacturer, models.RoleRetailer, false)
}

// SellToCustomer moves the product from a retailer to its first customer and
// restarts the warranty clock: coverage is anchored to the sale, not to
// manufacture.
func (s *Service) SellToCustomer(caller, productID, customer, details string) error {
	return s.transfer(caller, productID, customer, details, models.RoleRetailer, models.RoleCustomer, true)
}

// ResellProduct moves the product between customers. The warranty clock is
// untouched.
func (s *Service) ResellProduct(caller, productID, newOwner, details string) error {
	return s.transfer(caller, productID, newOwner, details, models.RoleCustomer, models.RoleCustomer, false)
}

// transfer is the shared ownership-transfer routine. It checks the caller's
// role and current ownership, the target's role, then atomically updates the
// ledger row, appends the history record, moves the index entry and writes
// the OwnershipTransferred event.
func (s *Service) transfer(caller, productID, newOwner, details string, callerRole, targetRole models.Role, resetWarranty bool) error {
	if newOwner == "" {
		return fmt.Errorf("%w: new owner required", sentinel.ErrInvalidArgument)
	}
	if newOwner == caller {
		return fmt.Errorf("%w: cannot transfer a product to its current owner", sentinel.ErrInvalidArgument)
	}
	err := s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		role, err := registry.RoleOf(tx, caller)
		if err != nil {
			return false, err
		}
		if role != callerRole {
			return false, fmt.Errorf("%w: caller does not hold the %s role", sentinel.ErrUnauthorized, callerRole)
		}
		if p.CurrentOwner != caller {
			return false, fmt.Errorf("%w: caller does not own product %s", sentinel.ErrUnauthorized, productID)
		}
		ownerRole, err := registry.RoleOf(tx, newOwner)
		if err != nil {
			return false, err
		}
		if ownerRole != targetRole {
			return false, fmt.Errorf("%w: new owner does not hold the %s role", sentinel.ErrUnauthorized, targetRole)
		}
		if err := s.appendTransfer(tx, p, newOwner, targetRole, callerRole, details); err != nil {
			return false, err
		}
		if resetWarranty && p.Warranty.Status == models.WarrantyActive {
			p.Warranty.StartDate = s.now()
		}
		return true, nil
	})
	if err == nil {
		s.lg.Infow("ownership transferred", "product_id", productID, "from", caller, "to", newOwner)
	}
	return err
}

// appendTransfer performs the bookkeeping of one ownership change inside the
// caller's transaction: history append, owner swap, index move, event write.
func (s *Service) appendTransfer(tx *gorm.DB, p *models.Product, newOwner string, newRole, fromRole models.Role, details string) error {
	now := s.now()
	from := p.CurrentOwner

	var seq int64
	if err := tx.Model(&models.OwnershipRecord{}).Where("product_id = ?", p.ProductID).Count(&seq).Error; err != nil {
		return err
	}
	if err := tx.Create(&models.OwnershipRecord{
		ProductID:     p.ProductID,
		Seq:           int(seq),
		Owner:         newOwner,
		OwnerRole:     newRole,
		TransferredAt: now,
		Details:       details,
		Visible:       true,
	}).Error; err != nil {
		return err
	}

	p.CurrentOwner = newOwner

	if err := tx.Delete(&models.OwnedProduct{}, "principal = ? AND product_id = ?", from, p.ProductID).Error; err != nil {
		return err
	}
	if err := tx.Create(&models.OwnedProduct{Principal: newOwner, ProductID: p.ProductID, Since: now}).Error; err != nil {
		return err
	}

	// attributed to the seller, the principal who performed the mutation;
	// the receiver is in the metadata
	return recordEvent(tx, p.ProductID, from, models.EventOwnershipTransferred, map[string]any{
		"from":      from,
		"to":        newOwner,
		"from_role": fromRole,
		"to_role":   newRole,
		"details":   details,
	})
}
