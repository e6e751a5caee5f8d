package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/pkg/enums"
)

// Subscription persists Stripe subscription state. Deletion events never
// remove the row; they only move Status.
type Subscription struct {
	ID                 uuid.UUID                `gorm:"type:uuid;primaryKey"`
	StripeID           string                   `gorm:"column:stripe_id;not null;uniqueIndex"`
	CustomerID         uuid.UUID                `gorm:"column:customer_id;type:uuid;not null;index"`
	PlanID             uuid.UUID                `gorm:"column:plan_id;type:uuid;not null;index"`
	Status             enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	BillingCycleAnchor *time.Time               `gorm:"column:billing_cycle_anchor"`
	CurrentPeriodStart *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd   *time.Time               `gorm:"column:current_period_end"`
	CancelAt           *time.Time               `gorm:"column:cancel_at"`
	CanceledAt         *time.Time               `gorm:"column:canceled_at"`
	CancelAtPeriodEnd  bool                     `gorm:"column:cancel_at_period_end;not null;default:false"`
	Quantity           int64                    `gorm:"column:quantity;not null;default:1"`
	Created            *time.Time               `gorm:"column:created"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
