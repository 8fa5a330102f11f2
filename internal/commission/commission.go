package commission

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Compute returns the commission owed on a sale amount at the given
// percentage rate, rounded to 2 decimal places half-up. The rate is a
// percentage (15 means 15%), validated to the 0..100 range.
func Compute(amount, rate decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount must not be negative")
	}
	if rate.IsNegative() || rate.GreaterThan(oneHundred) {
		return decimal.Zero, fmt.Errorf("rate %s out of range 0..100", rate)
	}
	return amount.Mul(rate).Div(oneHundred).Round(2), nil
}
