package types

import "strings"

// CustomerSnapshot is the buyer identity captured at sale time. It is a
// value copy, not a reference to a mutable profile, so historical sales
// stay accurate if the customer's data changes later.
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	City  string `json:"city,omitempty"`
}

// Validate reports whether the snapshot carries the minimum identity.
func (c CustomerSnapshot) Validate() bool {
	return strings.TrimSpace(c.Name) != "" && strings.TrimSpace(c.Phone) != ""
}
