package provenance

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"provtrack/internal/models"
	"provtrack/internal/sentinel"
)

const redacted = "REDACTED"

// ProductDetails is the caller-facing view of a product. Serial number and
// specifications are masked for third parties when the owner has opted out
// of public history.
type ProductDetails struct {
	ProductID      string                `json:"product_id"`
	SerialNumber   string                `json:"serial_number"`
	Model          string                `json:"model"`
	Specifications string                `json:"specifications"`
	Manufacturer   string                `json:"manufacturer"`
	CurrentOwner   string                `json:"current_owner"`
	ManufacturedAt time.Time             `json:"manufactured_at"`
	Warranty       models.WarrantyInfo   `json:"warranty"`
	WarrantyStatus models.WarrantyStatus `json:"warranty_status"`
	IsVisible      bool                  `json:"is_visible"`
}

// privileged reports whether the caller bypasses visibility filtering for
// this product. The admin and the current owner always see full detail;
// hidden records hide data from third parties only.
func (s *Service) privileged(caller string, p *models.Product) bool {
	return caller == s.admin || caller == p.CurrentOwner
}

// GetProductDetails returns the product, redacted for non-privileged callers
// when the owner opted out. Queries never fail on visibility grounds.
func (s *Service) GetProductDetails(caller, productID string) (*ProductDetails, error) {
	p, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	d := &ProductDetails{
		ProductID:      p.ProductID,
		SerialNumber:   p.SerialNumber,
		Model:          p.Model,
		Specifications: p.Specifications,
		Manufacturer:   p.Manufacturer,
		CurrentOwner:   p.CurrentOwner,
		ManufacturedAt: p.ManufacturedAt,
		Warranty:       p.Warranty,
		WarrantyStatus: p.Warranty.EffectiveStatus(s.now()),
		IsVisible:      p.HistoryPublic,
	}
	if !s.privileged(caller, p) && !p.HistoryPublic {
		d.SerialNumber = redacted
		d.Specifications = redacted
	}
	return d, nil
}

// GetOwnershipHistory returns the transfer history visible to the caller, in
// original order. Third parties see only records flagged visible, and
// nothing at all when the owner opted out; the result gives no indication of
// how many records were hidden.
func (s *Service) GetOwnershipHistory(caller, productID string) ([]models.OwnershipRecord, error) {
	p, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	q := s.db.Where("product_id = ?", productID).Order("seq asc")
	if !s.privileged(caller, p) {
		if !p.HistoryPublic {
			return []models.OwnershipRecord{}, nil
		}
		q = q.Where("visible = ?", true)
	}
	records := []models.OwnershipRecord{}
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// GetWarrantyHistory returns the claim sequence visible to the caller, with
// the same filtering rules as the ownership history.
func (s *Service) GetWarrantyHistory(caller, productID string) ([]models.WarrantyClaim, error) {
	p, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	q := s.db.Where("product_id = ?", productID).Order("claim_id asc")
	if !s.privileged(caller, p) {
		if !p.HistoryPublic {
			return []models.WarrantyClaim{}, nil
		}
		q = q.Where("visible = ?", true)
	}
	claims := []models.WarrantyClaim{}
	if err := q.Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

// GetUserProducts returns the product keys currently owned by a principal.
func (s *Service) GetUserProducts(principal string) ([]string, error) {
	var rows []models.OwnedProduct
	if err := s.db.Where("principal = ?", principal).Order("product_id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ProductID)
	}
	return ids, nil
}

// VerifyProductOwnership reports whether the caller is the current owner.
func (s *Service) VerifyProductOwnership(caller, productID string) (bool, error) {
	p, err := s.loadProduct(productID)
	if err != nil {
		return false, err
	}
	return p.CurrentOwner == caller, nil
}

// SetProductVisibility toggles the owner-level visibility preference that
// governs third-party reads of this product.
func (s *Service) SetProductVisibility(caller, productID string, visible bool) error {
	return s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		if p.CurrentOwner != caller {
			return false, fmt.Errorf("%w: caller does not own product %s", sentinel.ErrUnauthorized, productID)
		}
		if p.HistoryPublic == visible {
			return false, nil
		}
		p.HistoryPublic = visible
		return true, nil
	})
}

// SetOwnershipRecordVisibility flips the per-record flag of one history
// entry. The flag is the only mutable field of a record, and only the
// then-current owner may touch it.
func (s *Service) SetOwnershipRecordVisibility(caller, productID string, seq int, visible bool) error {
	return s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		if p.CurrentOwner != caller {
			return false, fmt.Errorf("%w: caller does not own product %s", sentinel.ErrUnauthorized, productID)
		}
		res := tx.Model(&models.OwnershipRecord{}).
			Where("product_id = ? AND seq = ?", productID, seq).
			Update("visible", visible)
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 0 {
			return false, fmt.Errorf("%w: history record %d for product %s", sentinel.ErrNotFound, seq, productID)
		}
		return true, nil
	})
}

// SetClaimVisibility flips the per-record flag of one claim entry.
func (s *Service) SetClaimVisibility(caller, productID string, claimID int, visible bool) error {
	return s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		if p.CurrentOwner != caller {
			return false, fmt.Errorf("%w: caller does not own product %s", sentinel.ErrUnauthorized, productID)
		}
		res := tx.Model(&models.WarrantyClaim{}).
			Where("product_id = ? AND claim_id = ?", productID, claimID).
			Update("visible", visible)
		if res.Error != nil {
			return false, res.Error
		}
		if res.RowsAffected == 0 {
			return false, fmt.Errorf("%w: claim %d for product %s", sentinel.ErrNotFound, claimID, productID)
		}
		return true, nil
	})
}

// ListEvents returns the audit trail. The admin reads everything, optionally
// narrowed to one product; everyone else reads only events they caused.
func (s *Service) ListEvents(caller, productID string, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 200
	}
	q := s.db.Order("id desc").Limit(limit)
	if caller != s.admin {
		q = q.Where("principal = ?", caller)
	}
	if productID != "" {
		q = q.Where("product_id = ?", productID)
	}
	events := []models.AuditEvent{}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
