package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rifazone/rifazone-backend/pkg/enums"
	"github.com/rifazone/rifazone-backend/pkg/types"
)

// Sale is one ticket purchase, online (PIX) or door-to-door. Door-to-door
// sales carry the settlement fields: ExpectedAmount is fixed at
// registration and never recalculated, AmountPaid is whatever cash was
// actually handed over at settlement.
type Sale struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	RaffleID         uuid.UUID              `gorm:"column:raffle_id;type:uuid;not null;index"`
	PartnerID        *uuid.UUID             `gorm:"column:partner_id;type:uuid;index"`
	Channel          enums.SaleChannel      `gorm:"column:channel;type:sale_channel;not null;default:'online'"`
	Customer         types.CustomerSnapshot `gorm:"column:customer;type:jsonb;serializer:json"`
	Quantity         int                    `gorm:"column:quantity;not null"`
	Amount           decimal.Decimal        `gorm:"column:amount;type:decimal(12,2);not null"`
	ExpectedAmount   decimal.Decimal        `gorm:"column:expected_amount;type:decimal(12,2);not null;default:0"`
	AmountPaid       *decimal.Decimal       `gorm:"column:amount_paid;type:decimal(12,2)"`
	Commission       decimal.Decimal        `gorm:"column:commission;type:decimal(12,2);not null;default:0"`
	CommissionReview bool                   `gorm:"column:commission_review;not null;default:false"`
	Status           enums.SaleStatus       `gorm:"column:status;type:sale_status;not null;default:'pending'"`
	AgentName        string                 `gorm:"column:agent_name"`
	SettlementNotes  *string                `gorm:"column:settlement_notes"`
	CancelReason     *string                `gorm:"column:cancel_reason"`
	PaymentSessionID *string                `gorm:"column:payment_session_id;index"`
	Tickets          []Ticket               `gorm:"foreignKey:SaleID"`
	SettledAt        *time.Time             `gorm:"column:settled_at"`
	CancelledAt      *time.Time             `gorm:"column:cancelled_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// TicketNumbers returns the assigned numbers in allocation order.
func (s Sale) TicketNumbers() []string {
	numbers := make([]string, 0, len(s.Tickets))
	for _, t := range s.Tickets {
		numbers = append(numbers, t.Number)
	}
	return numbers
}
