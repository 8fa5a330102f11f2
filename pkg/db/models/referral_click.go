package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferralClick is an append-only tracking record for a visit carrying a
// partner's referral code. Clicks are never deleted; at most one sale may
// consume a click via last-touch attribution.
type ReferralClick struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	PartnerID   uuid.UUID  `gorm:"column:partner_id;type:uuid;not null;index"`
	Referrer    string     `gorm:"column:referrer"`
	UserAgent   string     `gorm:"column:user_agent"`
	Converted   bool       `gorm:"column:converted;not null;default:false"`
	ConvertedAt *time.Time `gorm:"column:converted_at"`
	SaleID      *uuid.UUID `gorm:"column:sale_id;type:uuid"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime;index"`
}
