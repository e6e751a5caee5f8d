package plans

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
)

// Repository handles plan and product persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	UpsertPlan(ctx context.Context, plan *models.Plan) error
	FindPlanByStripeID(ctx context.Context, stripeID string) (*models.Plan, error)
	UpsertProduct(ctx context.Context, product *models.Product) error
	FindProductByStripeID(ctx context.Context, stripeID string) (*models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a plans repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// UpsertPlan inserts or refreshes the plan row keyed on stripe_id.
func (r *repository) UpsertPlan(ctx context.Context, plan *models.Plan) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"active",
				"amount",
				"amount_decimal",
				"currency",
				"interval",
				"interval_count",
				"created",
				"updated_at",
			}),
		}).
		Create(plan).Error
}

func (r *repository) FindPlanByStripeID(ctx context.Context, stripeID string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.WithContext(ctx).
		Where("stripe_id = ?", stripeID).
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpsertProduct inserts or refreshes the product row keyed on stripe_id.
func (r *repository) UpsertProduct(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_id",
				"name",
				"active",
				"created",
				"updated_at",
			}),
		}).
		Create(product).Error
}

func (r *repository) FindProductByStripeID(ctx context.Context, stripeID string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("stripe_id = ?", stripeID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}
