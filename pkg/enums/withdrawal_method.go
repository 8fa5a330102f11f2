package enums

import "fmt"

// WithdrawalMethod is the payout rail a partner chose.
type WithdrawalMethod string

const (
	WithdrawalMethodPix          WithdrawalMethod = "pix"
	WithdrawalMethodBankTransfer WithdrawalMethod = "bank_transfer"
)

var validWithdrawalMethods = []WithdrawalMethod{
	WithdrawalMethodPix,
	WithdrawalMethodBankTransfer,
}

// String implements fmt.Stringer.
func (m WithdrawalMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known WithdrawalMethod.
func (m WithdrawalMethod) IsValid() bool {
	for _, candidate := range validWithdrawalMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseWithdrawalMethod converts raw input into a WithdrawalMethod.
func ParseWithdrawalMethod(value string) (WithdrawalMethod, error) {
	for _, candidate := range validWithdrawalMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid withdrawal method %q", value)
}
