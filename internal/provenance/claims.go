package provenance

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"provtrack/internal/models"
	"provtrack/internal/registry"
	"provtrack/internal/sentinel"
)

// SubmitWarrantyClaim appends a Pending claim for the calling customer. The
// warranty must be effectively Active at submission time: the lazy expiry
// check applies here, not only at status reads. Claim ids are positional and
// scoped per product, starting at 0.
func (s *Service) SubmitWarrantyClaim(caller, productID, description string) (int, error) {
	if description == "" {
		return 0, fmt.Errorf("%w: description required", sentinel.ErrInvalidArgument)
	}
	claimID := -1
	err := s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		role, err := registry.RoleOf(tx, caller)
		if err != nil {
			return false, err
		}
		if role != models.RoleCustomer {
			return false, fmt.Errorf("%w: caller is not a customer", sentinel.ErrUnauthorized)
		}
		if p.CurrentOwner != caller {
			return false, fmt.Errorf("%w: caller does not own product %s", sentinel.ErrUnauthorized, productID)
		}
		now := s.now()
		if p.Warranty.EffectiveStatus(now) != models.WarrantyActive {
			return false, fmt.Errorf("%w: warranty is %s", sentinel.ErrInvalidState, p.Warranty.EffectiveStatus(now))
		}
		if p.Warranty.UsedClaims >= p.Warranty.MaxClaims {
			return false, fmt.Errorf("%w: claim limit reached", sentinel.ErrInvalidState)
		}

		id, err := nextClaimID(tx, productID)
		if err != nil {
			return false, err
		}
		if err := tx.Create(&models.WarrantyClaim{
			ProductID:   productID,
			ClaimID:     id,
			Customer:    caller,
			Description: description,
			SubmittedAt: now,
			Status:      models.ClaimPending,
			Visible:     true,
		}).Error; err != nil {
			return false, err
		}
		if err := recordEvent(tx, productID, caller, models.EventWarrantyClaimSubmitted, map[string]any{
			"claim_id": id,
			"customer": caller,
		}); err != nil {
			return false, err
		}
		claimID = id
		// No product field changes, but the version bump serializes the
		// claim append against concurrent transfers.
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	s.lg.Infow("warranty claim submitted", "product_id", productID, "claim_id", claimID, "customer", caller)
	return claimID, nil
}

// ProcessWarrantyClaim resolves a Pending claim to Approved or Rejected.
// Claims are processed exactly once. An approval consumes one claim; hitting
// the limit flips the warranty to ClaimLimitReached permanently, the one
// warranty transition that is not lazily derived.
func (s *Service) ProcessWarrantyClaim(caller, productID string, claimID int, newStatus models.ClaimStatus, serviceNotes string) error {
	if newStatus != models.ClaimApproved && newStatus != models.ClaimRejected {
		return fmt.Errorf("%w: claims resolve to Approved or Rejected, not %q", sentinel.ErrInvalidArgument, newStatus)
	}
	err := s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		authorized, err := registry.IsServiceCenter(tx, caller)
		if err != nil {
			return false, err
		}
		if !authorized {
			return false, fmt.Errorf("%w: caller is not an authorized service center", sentinel.ErrUnauthorized)
		}

		var claim models.WarrantyClaim
		err = tx.First(&claim, "product_id = ? AND claim_id = ?", productID, claimID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: claim %d for product %s", sentinel.ErrNotFound, claimID, productID)
		}
		if err != nil {
			return false, err
		}
		if claim.Status != models.ClaimPending {
			return false, fmt.Errorf("%w: claim %d is %s, not Pending", sentinel.ErrInvalidState, claimID, claim.Status)
		}

		now := s.now()
		claim.Status = newStatus
		claim.ServiceCenter = caller
		claim.ServiceNotes = serviceNotes
		claim.ProcessedAt = &now
		if err := tx.Model(&models.WarrantyClaim{}).
			Where("product_id = ? AND claim_id = ?", productID, claimID).
			Updates(map[string]any{
				"status":         claim.Status,
				"service_center": claim.ServiceCenter,
				"service_notes":  claim.ServiceNotes,
				"processed_at":   claim.ProcessedAt,
			}).Error; err != nil {
			return false, err
		}

		if newStatus == models.ClaimApproved {
			p.Warranty.UsedClaims++
			if p.Warranty.UsedClaims >= p.Warranty.MaxClaims {
				p.Warranty.Status = models.WarrantyClaimLimitReached
				if err := recordEvent(tx, productID, caller, models.EventWarrantyStatusChanged, map[string]any{
					"new_status": models.WarrantyClaimLimitReached,
				}); err != nil {
					return false, err
				}
			}
		}
		if err := recordEvent(tx, productID, caller, models.EventWarrantyClaimProcessed, map[string]any{
			"claim_id":       claimID,
			"status":         newStatus,
			"service_center": caller,
		}); err != nil {
			return false, err
		}
		return true, nil
	})
	if err == nil {
		s.lg.Infow("warranty claim processed", "product_id", productID, "claim_id", claimID, "status", newStatus)
	}
	return err
}

// LogServiceAction appends a Completed claim-sequence entry for routine
// service work, bypassing the Pending stage. The customer field is taken
// from the product's current owner.
func (s *Service) LogServiceAction(caller, productID, description, partsReplaced string) (int, error) {
	if description == "" {
		return 0, fmt.Errorf("%w: description required", sentinel.ErrInvalidArgument)
	}
	claimID := -1
	err := s.mutateProduct(productID, func(tx *gorm.DB, p *models.Product) (bool, error) {
		authorized, err := registry.IsServiceCenter(tx, caller)
		if err != nil {
			return false, err
		}
		if !authorized {
			return false, fmt.Errorf("%w: caller is not an authorized service center", sentinel.ErrUnauthorized)
		}

		id, err := nextClaimID(tx, productID)
		if err != nil {
			return false, err
		}
		now := s.now()
		if err := tx.Create(&models.WarrantyClaim{
			ProductID:     productID,
			ClaimID:       id,
			Customer:      p.CurrentOwner,
			ServiceCenter: caller,
			Description:   description,
			ServiceNotes:  partsReplaced,
			SubmittedAt:   now,
			ProcessedAt:   &now,
			Status:        models.ClaimCompleted,
			Visible:       true,
		}).Error; err != nil {
			return false, err
		}
		if err := recordEvent(tx, productID, caller, models.EventWarrantyClaimProcessed, map[string]any{
			"claim_id":       id,
			"status":         models.ClaimCompleted,
			"service_center": caller,
		}); err != nil {
			return false, err
		}
		claimID = id
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return claimID, nil
}

func nextClaimID(tx *gorm.DB, productID string) (int, error) {
	var n int64
	if err := tx.Model(&models.WarrantyClaim{}).Where("product_id = ?", productID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}
