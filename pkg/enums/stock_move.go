package enums

import "fmt"

// StockMoveType maps to the stock_move_type_enum enum in Postgres.
type StockMoveType string

const (
	StockMoveTypeScrap StockMoveType = "scrap"
)

var validStockMoveTypes = []StockMoveType{
	StockMoveTypeScrap,
}

// IsValid reports whether the value matches the canonical stock move enum.
func (t StockMoveType) IsValid() bool {
	for _, candidate := range validStockMoveTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseStockMoveType converts raw input into StockMoveType.
func ParseStockMoveType(value string) (StockMoveType, error) {
	for _, candidate := range validStockMoveTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock move type %q", value)
}
