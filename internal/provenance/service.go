package provenance

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"provtrack/internal/models"
	"provtrack/internal/sentinel"
)

// maxTxRetries bounds optimistic-lock retries before the operation is
// surfaced to the caller as a transient conflict.
const maxTxRetries = 3

// errStale signals that the compare-and-swap on the product version lost to
// a concurrent writer; the whole transaction is retried.
var errStale = errors.New("stale product version")

// Service implements the product ledger, the warranty engine, the claim
// workflow and the visibility-filtered query layer. All mutating operations
// on one product key are serialized through an optimistic version stamp on
// the product row; every mutation commits ledger, history, claim, index and
// audit writes in a single transaction.
type Service struct {
	db    *gorm.DB
	lg    *zap.SugaredLogger
	admin string
	now   func() time.Time
}

func New(db *gorm.DB, lg *zap.SugaredLogger, admin string) *Service {
	return &Service{db: db, lg: lg, admin: admin, now: func() time.Time { return time.Now().UTC() }}
}

// mutateProduct loads the product row, applies fn inside a transaction and
// commits with a compare-and-swap on the version stamp. fn returns false to
// skip the write entirely (no-op operations such as refreshing an already
// expired warranty). Losing the swap rolls back and retries the whole
// transaction, bounded by maxTxRetries.
func (s *Service) mutateProduct(productID string, fn func(tx *gorm.DB, p *models.Product) (bool, error)) error {
	if productID == "" {
		return fmt.Errorf("%w: product id required", sentinel.ErrInvalidArgument)
	}
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var p models.Product
			if err := tx.First(&p, "product_id = ?", productID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %s", sentinel.ErrNotFound, productID)
				}
				return err
			}
			prev := p.Version
			changed, err := fn(tx, &p)
			if err != nil {
				return err
			}
			if !changed {
				return nil
			}
			p.Version = prev + 1
			p.UpdatedAt = s.now()
			res := tx.Model(&models.Product{}).
				Where("product_id = ? AND version = ?", productID, prev).
				Select("*").Omit("product_id", "created_at").
				Updates(&p)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStale
			}
			return nil
		})
		if err == nil {
			return nil
		}
		if !errors.Is(err, errStale) {
			return err
		}
		s.lg.Debugw("optimistic lock conflict, retrying", "product_id", productID, "attempt", attempt+1)
	}
	return fmt.Errorf("%w: product %s", sentinel.ErrConflict, productID)
}

// loadProduct fetches a product outside any transaction, for read paths.
func (s *Service) loadProduct(productID string) (*models.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id required", sentinel.ErrInvalidArgument)
	}
	var p models.Product
	if err := s.db.First(&p, "product_id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", sentinel.ErrNotFound, productID)
		}
		return nil, err
	}
	return &p, nil
}

func recordEvent(tx *gorm.DB, productID, principal, action string, meta map[string]any) error {
	return tx.Create(&models.AuditEvent{
		ProductID: productID,
		Principal: principal,
		Action:    action,
		Metadata:  models.Meta(meta),
	}).Error
}
