package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dlemos/billingsync-backend/pkg/enums"
)

// Plan persists a Stripe plan. Amount is kept in minor currency units with a
// decimal mirror, matching what Stripe delivers on the event.
type Plan struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey"`
	StripeID      string             `gorm:"column:stripe_id;not null;uniqueIndex"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	Amount        int64              `gorm:"column:amount;not null;default:0"`
	AmountDecimal decimal.Decimal    `gorm:"column:amount_decimal;type:numeric(18,6);not null;default:0"`
	Currency      string             `gorm:"column:currency;not null"`
	Interval      enums.PlanInterval `gorm:"column:interval;not null"`
	IntervalCount int64              `gorm:"column:interval_count;not null;default:1"`
	Created       *time.Time         `gorm:"column:created"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
