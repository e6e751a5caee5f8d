package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product persists a Stripe product and its owning plan, resolved through the
// product's default price at ingestion time.
type Product struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StripeID  string     `gorm:"column:stripe_id;not null;uniqueIndex"`
	PlanID    uuid.UUID  `gorm:"column:plan_id;type:uuid;not null;index"`
	Name      string     `gorm:"column:name;not null"`
	Active    bool       `gorm:"column:active;not null;default:true"`
	Created   *time.Time `gorm:"column:created"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
