package enums

import "fmt"

// RaffleStatus gates which raffles accept new sales.
type RaffleStatus string

const (
	RaffleStatusDraft  RaffleStatus = "draft"
	RaffleStatusOpen   RaffleStatus = "open"
	RaffleStatusClosed RaffleStatus = "closed"
	RaffleStatusDrawn  RaffleStatus = "drawn"
)

var validRaffleStatuses = []RaffleStatus{
	RaffleStatusDraft,
	RaffleStatusOpen,
	RaffleStatusClosed,
	RaffleStatusDrawn,
}

// String implements fmt.Stringer.
func (r RaffleStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RaffleStatus.
func (r RaffleStatus) IsValid() bool {
	for _, candidate := range validRaffleStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRaffleStatus converts raw input into a RaffleStatus.
func ParseRaffleStatus(value string) (RaffleStatus, error) {
	for _, candidate := range validRaffleStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid raffle status %q", value)
}
