package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/pkg/enums"
)

// WithdrawalRequest is a partner-initiated payout against available
// balance. Pending and approved requests hold the amount against the
// balance; rejection releases the hold.
type WithdrawalRequest struct {
	ID             uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	PartnerID      uuid.UUID              `gorm:"column:partner_id;type:uuid;not null;index"`
	Amount         decimal.Decimal        `gorm:"column:amount;type:decimal(12,2);not null"`
	Method         enums.WithdrawalMethod `gorm:"column:method;type:withdrawal_method;not null"`
	PaymentDetails json.RawMessage        `gorm:"column:payment_details;type:jsonb"`
	Status         enums.WithdrawalStatus `gorm:"column:status;type:withdrawal_status;not null;default:'pending'"`
	RejectReason   *string                `gorm:"column:reject_reason"`
	DecidedAt      *time.Time             `gorm:"column:decided_at"`
	ProcessedAt    *time.Time             `gorm:"column:processed_at"`
	CreatedAt      time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt      time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
