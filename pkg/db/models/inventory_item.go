package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem tracks the on-hand quantity per product.
type InventoryItem struct {
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;primaryKey"`
	OnHandQty decimal.Decimal `gorm:"column:on_hand_qty;type:numeric(18,4);not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
