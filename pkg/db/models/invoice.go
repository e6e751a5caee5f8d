package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/pkg/enums"
)

// Invoice persists Stripe invoice totals and billing period bounds.
type Invoice struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey"`
	StripeID        string              `gorm:"column:stripe_id;not null;uniqueIndex"`
	ProductID       uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	CustomerID      uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	Status          enums.InvoiceStatus `gorm:"column:status;not null;default:'draft'"`
	AmountDue       int64               `gorm:"column:amount_due;not null;default:0"`
	AmountPaid      int64               `gorm:"column:amount_paid;not null;default:0"`
	AmountRemaining int64               `gorm:"column:amount_remaining;not null;default:0"`
	Currency        string              `gorm:"column:currency;not null"`
	PeriodStart     *time.Time          `gorm:"column:period_start"`
	PeriodEnd       *time.Time          `gorm:"column:period_end"`
	Quantity        int64               `gorm:"column:quantity;not null;default:1"`
	Created         *time.Time          `gorm:"column:created"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
