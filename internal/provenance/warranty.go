package provenance

import (
	"time"

	"gorm.io/gorm"

	"provtrack/internal/models"
)

// WarrantyStatusView is the derived warranty state returned to callers.
type WarrantyStatusView struct {
	ProductID       string                `json:"product_id"`
	Status          models.WarrantyStatus `json:"status"`
	RemainingClaims int                   `json:"remaining_claims"`
	ExpiryDate      time.Time             `json:"expiry_date"`
}

// CheckWarrantyStatus computes the effective warranty status at read time.
// An Active warranty past its window reads as Expired without the stored
// row being rewritten.
func (s *Service) CheckWarrantyStatus(productID string) (*WarrantyStatusView, error) {
	p, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	return &WarrantyStatusView{
		ProductID:       p.ProductID,
		Status:          p.Warranty.EffectiveStatus(s.now()),
		RemainingClaims: p.Warranty.MaxClaims - p.Warranty.UsedClaims,
		ExpiryDate:      p.Warranty.Expiry(),
	}, nil
}

// UpdateWarrantyStatus materializes a lazily derived expiry into the stored
// row. Callable by anyone since it only persists a fact already derivable;
// idempotent on an already expired warranty.
func (s *Service) UpdateWarrantyStatus(caller, productID string) error {
	return s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		if p.Warranty.Status != models.WarrantyActive {
			return false, nil
		}
		if p.Warranty.EffectiveStatus(s.now()) != models.WarrantyExpired {
			return false, nil
		}
		p.Warranty.Status = models.WarrantyExpired
		if err := recordEvent(tx, p.ProductID, caller, models.EventWarrantyStatusChanged, map[string]any{
			"new_status": models.WarrantyExpired,
		}); err != nil {
			return false, err
		}
		return true, nil
	})
}
