package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Partner is an affiliate who refers customers via a unique slug and earns
// commission on attributed sales. Partners are deactivated, never deleted,
// so historical sales and clicks keep their owner.
type Partner struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Slug           string          `gorm:"column:slug;not null;uniqueIndex"`
	Email          string          `gorm:"column:email;not null"`
	Phone          string          `gorm:"column:phone"`
	PixKey         string          `gorm:"column:pix_key"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:decimal(5,2);not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
