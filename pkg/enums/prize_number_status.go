package enums

import "fmt"

// PrizeNumberStatus moves forward only:
// disponivel -> reservado -> premiado, or disponivel -> premiado.
type PrizeNumberStatus string

const (
	PrizeNumberStatusDisponivel PrizeNumberStatus = "disponivel"
	PrizeNumberStatusReservado  PrizeNumberStatus = "reservado"
	PrizeNumberStatusPremiado   PrizeNumberStatus = "premiado"
)

var validPrizeNumberStatuses = []PrizeNumberStatus{
	PrizeNumberStatusDisponivel,
	PrizeNumberStatusReservado,
	PrizeNumberStatusPremiado,
}

// String implements fmt.Stringer.
func (p PrizeNumberStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PrizeNumberStatus.
func (p PrizeNumberStatus) IsValid() bool {
	for _, candidate := range validPrizeNumberStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// CanTransitionTo enforces the forward-only status order.
func (p PrizeNumberStatus) CanTransitionTo(next PrizeNumberStatus) bool {
	switch p {
	case PrizeNumberStatusDisponivel:
		return next == PrizeNumberStatusReservado || next == PrizeNumberStatusPremiado
	case PrizeNumberStatusReservado:
		return next == PrizeNumberStatusPremiado
	}
	return false
}

// ParsePrizeNumberStatus converts raw input into a PrizeNumberStatus.
func ParsePrizeNumberStatus(value string) (PrizeNumberStatus, error) {
	for _, candidate := range validPrizeNumberStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid prize number status %q", value)
}
