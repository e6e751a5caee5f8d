package subscriptions

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
)

// Repository handles subscription persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, subscription *models.Subscription) error
	FindByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a subscriptions repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts or refreshes the subscription row keyed on stripe_id.
func (r *repository) Upsert(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"customer_id",
				"plan_id",
				"status",
				"billing_cycle_anchor",
				"current_period_start",
				"current_period_end",
				"cancel_at",
				"canceled_at",
				"cancel_at_period_end",
				"quantity",
				"created",
				"updated_at",
			}),
		}).
		Create(subscription).Error
}

func (r *repository) FindByStripeID(ctx context.Context, stripeID string) (*models.Subscription, error) {
	var subscription models.Subscription
	err := r.db.WithContext(ctx).
		Where("stripe_id = ?", stripeID).
		First(&subscription).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}
