package enums

import "fmt"

// ProductTracking mirrors how the inventory system tracks individual units.
type ProductTracking string

const (
	ProductTrackingNone   ProductTracking = "none"
	ProductTrackingLot    ProductTracking = "lot"
	ProductTrackingSerial ProductTracking = "serial"
)

var validProductTrackings = []ProductTracking{
	ProductTrackingNone,
	ProductTrackingLot,
	ProductTrackingSerial,
}

// String implements fmt.Stringer.
func (t ProductTracking) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ProductTracking.
func (t ProductTracking) IsValid() bool {
	for _, candidate := range validProductTrackings {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseProductTracking converts raw input into a ProductTracking.
func ParseProductTracking(value string) (ProductTracking, error) {
	for _, candidate := range validProductTrackings {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product tracking %q", value)
}
