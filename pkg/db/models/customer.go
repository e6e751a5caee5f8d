package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer mirrors a Stripe customer. Rows are created lazily the first time a
// customer or invoice event references the external id.
type Customer struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	StripeID  string          `gorm:"column:stripe_id;not null;uniqueIndex"`
	UserID    *string         `gorm:"column:user_id;index"`
	Email     string          `gorm:"column:email;not null;index"`
	Name      string          `gorm:"column:name"`
	Phone     *string         `gorm:"column:phone"`
	Address   json.RawMessage `gorm:"column:address;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
