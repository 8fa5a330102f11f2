package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

// PrizeNumber is a ticket number pre-designated by the admin to award an
// instant prize when sold. Once premiado it is immutable except for
// corrective admin edits, which are refused to preserve the audit trail
// of who won what.
type PrizeNumber struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	RaffleID      uuid.UUID               `gorm:"column:raffle_id;type:uuid;not null;uniqueIndex:idx_prize_numbers_raffle_number"`
	Number        string                  `gorm:"column:number;not null;uniqueIndex:idx_prize_numbers_raffle_number"`
	Description   string                  `gorm:"column:description;not null"`
	Value         decimal.Decimal         `gorm:"column:value;type:decimal(12,2);not null;default:0"`
	Status        enums.PrizeNumberStatus `gorm:"column:status;type:prize_number_status;not null;default:'disponivel'"`
	Winner        *types.CustomerSnapshot `gorm:"column:winner;type:jsonb;serializer:json"`
	AwardedSaleID *uuid.UUID              `gorm:"column:awarded_sale_id;type:uuid"`
	AwardedAt     *time.Time              `gorm:"column:awarded_at"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
