package enums

import "fmt"

// SaleChannel distinguishes how a sale was made.
type SaleChannel string

const (
	SaleChannelOnline     SaleChannel = "online"
	SaleChannelDoorToDoor SaleChannel = "door_to_door"
)

var validSaleChannels = []SaleChannel{
	SaleChannelOnline,
	SaleChannelDoorToDoor,
}

// String implements fmt.Stringer.
func (c SaleChannel) String() string {
	return string(c)
}

// IsValid reports whether the value is a known SaleChannel.
func (c SaleChannel) IsValid() bool {
	for _, candidate := range validSaleChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseSaleChannel converts raw input into a SaleChannel.
func ParseSaleChannel(value string) (SaleChannel, error) {
	for _, candidate := range validSaleChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale channel %q", value)
}
