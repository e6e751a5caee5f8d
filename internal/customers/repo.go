package customers

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dlemos/billingsync-backend/pkg/db/models"
)

// Repository handles customer persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, customer *models.Customer) error
	Create(ctx context.Context, customer *models.Customer) error
	Save(ctx context.Context, customer *models.Customer) error
	FindByStripeID(ctx context.Context, stripeID string) (*models.Customer, error)
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindByUserID(ctx context.Context, userID string) (*models.Customer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a customers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts or refreshes the customer row keyed on stripe_id.
func (r *repository) Upsert(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "stripe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email",
				"name",
				"phone",
				"address",
				"updated_at",
			}),
		}).
		Create(customer).Error
}

func (r *repository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repository) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repository) FindByStripeID(ctx context.Context, stripeID string) (*models.Customer, error) {
	return r.findOne(ctx, "stripe_id = ?", stripeID)
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *repository) FindByUserID(ctx context.Context, userID string) (*models.Customer, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where(query, arg).
		First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
