package enums

import "fmt"

// BarcodeType tags how a scanned barcode produced its quantity.
type BarcodeType string

const (
	BarcodeTypeWeight BarcodeType = "weight"
	BarcodeTypeUnit   BarcodeType = "unit"
)

// String implements fmt.Stringer.
func (b BarcodeType) String() string {
	return string(b)
}

// BarcodeRuleType is the kind of value a nomenclature rule embeds.
type BarcodeRuleType string

const (
	BarcodeRuleTypeWeight BarcodeRuleType = "weight"
	BarcodeRuleTypePrice  BarcodeRuleType = "price"
	BarcodeRuleTypeUnit   BarcodeRuleType = "unit"
)

var validBarcodeRuleTypes = []BarcodeRuleType{
	BarcodeRuleTypeWeight,
	BarcodeRuleTypePrice,
	BarcodeRuleTypeUnit,
}

// IsValid reports whether the value is a known BarcodeRuleType.
func (t BarcodeRuleType) IsValid() bool {
	for _, candidate := range validBarcodeRuleTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseBarcodeRuleType converts raw input into a BarcodeRuleType.
func ParseBarcodeRuleType(value string) (BarcodeRuleType, error) {
	for _, candidate := range validBarcodeRuleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid barcode rule type %q", value)
}
