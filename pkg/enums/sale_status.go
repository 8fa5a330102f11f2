package enums

import "fmt"

// SaleStatus tracks the lifecycle of a sale. Online sales use
// pending/completed/cancelled/refunded; door-to-door sales use
// pending_settlement/settled/cancelled.
type SaleStatus string

const (
	SaleStatusPending           SaleStatus = "pending"
	SaleStatusCompleted         SaleStatus = "completed"
	SaleStatusCancelled         SaleStatus = "cancelled"
	SaleStatusRefunded          SaleStatus = "refunded"
	SaleStatusPendingSettlement SaleStatus = "pending_settlement"
	SaleStatusSettled           SaleStatus = "settled"
)

var validSaleStatuses = []SaleStatus{
	SaleStatusPending,
	SaleStatusCompleted,
	SaleStatusCancelled,
	SaleStatusRefunded,
	SaleStatusPendingSettlement,
	SaleStatusSettled,
}

// CommissionBearingSaleStatuses are the statuses whose commission counts
// toward a partner's balance.
var CommissionBearingSaleStatuses = []SaleStatus{
	SaleStatusCompleted,
	SaleStatusSettled,
}

// String implements fmt.Stringer.
func (s SaleStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleStatus.
func (s SaleStatus) IsValid() bool {
	for _, candidate := range validSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave the status.
func (s SaleStatus) IsTerminal() bool {
	switch s {
	case SaleStatusCompleted, SaleStatusCancelled, SaleStatusRefunded, SaleStatusSettled:
		return true
	}
	return false
}

// BearsCommission reports whether sales in this status credit commission.
func (s SaleStatus) BearsCommission() bool {
	for _, candidate := range CommissionBearingSaleStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleStatus converts raw input into a SaleStatus.
func ParseSaleStatus(value string) (SaleStatus, error) {
	for _, candidate := range validSaleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale status %q", value)
}
