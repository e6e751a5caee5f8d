package invoices

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
)

// Repository handles invoice persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, invoice *models.Invoice) error
	FindByStripeID(ctx context.Context, stripeID string) (*models.Invoice, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoices repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts or refreshes the invoice row keyed on stripe_id.
func (r *repository) Upsert(ctx context.Context, invoice *models.Invoice) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_id",
				"customer_id",
				"status",
				"amount_due",
				"amount_paid",
				"amount_remaining",
				"currency",
				"period_start",
				"period_end",
				"quantity",
				"created",
				"updated_at",
			}),
		}).
		Create(invoice).Error
}

func (r *repository) FindByStripeID(ctx context.Context, stripeID string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := r.db.WithContext(ctx).
		Where("stripe_id = ?", stripeID).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}
