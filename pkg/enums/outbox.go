package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSale       OutboxAggregateType = "sale"
	AggregatePartner    OutboxAggregateType = "partner"
	AggregateWithdrawal OutboxAggregateType = "withdrawal"
	AggregatePrize      OutboxAggregateType = "prize_number"
	AggregateRaffle     OutboxAggregateType = "raffle"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSale,
	AggregatePartner,
	AggregateWithdrawal,
	AggregatePrize,
	AggregateRaffle,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventSaleCompleted               OutboxEventType = "sale_completed"
	EventSaleSettled                 OutboxEventType = "sale_settled"
	EventSaleCancelled               OutboxEventType = "sale_cancelled"
	EventSettlementDiscrepancy       OutboxEventType = "sale_settlement_discrepancy"
	EventCommissionFlaggedForReview  OutboxEventType = "commission_flagged_for_review"
	EventWithdrawalRequested         OutboxEventType = "withdrawal_requested"
	EventWithdrawalDecided           OutboxEventType = "withdrawal_decided"
	EventWithdrawalProcessed         OutboxEventType = "withdrawal_processed"
	EventPrizeAwarded                OutboxEventType = "prize_awarded"
	EventReferralConversionRecorded  OutboxEventType = "referral_conversion_recorded"
	EventPartnerActivationChanged    OutboxEventType = "partner_activation_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSaleCompleted,
	EventSaleSettled,
	EventSaleCancelled,
	EventSettlementDiscrepancy,
	EventCommissionFlaggedForReview,
	EventWithdrawalRequested,
	EventWithdrawalDecided,
	EventWithdrawalProcessed,
	EventPrizeAwarded,
	EventReferralConversionRecorded,
	EventPartnerActivationChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
