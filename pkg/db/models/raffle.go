package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/pkg/enums"
)

// Raffle holds the sale configuration for one draw: the numeric pool,
// fixed-width formatting, and tiered pricing.
type Raffle struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Title          string             `gorm:"column:title;not null"`
	Slug           string             `gorm:"column:slug;not null;uniqueIndex"`
	UnitPrice      decimal.Decimal    `gorm:"column:unit_price;type:decimal(12,2);not null"`
	DiscountPrice  decimal.Decimal    `gorm:"column:discount_price;type:decimal(12,2);not null;default:0"`
	DiscountMinQty int                `gorm:"column:discount_min_qty;not null;default:0"`
	NumberDigits   int                `gorm:"column:number_digits;not null;default:4"`
	MaxNumber      int                `gorm:"column:max_number;not null"`
	MaxPerSale     int                `gorm:"column:max_per_sale;not null;default:100"`
	Status         enums.RaffleStatus `gorm:"column:status;type:raffle_status;not null;default:'draft'"`
	DrawnAt        *time.Time         `gorm:"column:drawn_at"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// PoolSize is the count of allocatable numbers (0 through MaxNumber).
func (r Raffle) PoolSize() int {
	if r.MaxNumber < 0 {
		return 0
	}
	return r.MaxNumber + 1
}

// UnitPriceFor returns the effective unit price for a quantity, applying
// the discount tier once the threshold is met. Pricing is always derived
// here on the server, never trusted from the caller.
func (r Raffle) UnitPriceFor(quantity int) decimal.Decimal {
	if r.DiscountMinQty > 0 && quantity >= r.DiscountMinQty && r.DiscountPrice.IsPositive() {
		return r.DiscountPrice
	}
	return r.UnitPrice
}

// TotalPriceFor returns the server-derived total for a quantity.
func (r Raffle) TotalPriceFor(quantity int) decimal.Decimal {
	return r.UnitPriceFor(quantity).Mul(decimal.NewFromInt(int64(quantity)))
}
