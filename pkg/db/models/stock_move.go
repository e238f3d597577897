package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// StockMove is the append-only ledger row written when a scrap order is validated.
type StockMove struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Type         enums.StockMoveType `gorm:"column:type;not null"`
	ScrapOrderID uuid.UUID           `gorm:"column:scrap_order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID           `gorm:"column:product_id;type:uuid;not null;index"`
	LocationID   *uuid.UUID          `gorm:"column:location_id;type:uuid"`
	Quantity     decimal.Decimal     `gorm:"column:quantity;type:numeric(18,4);not null"`
	OnHandBefore decimal.Decimal     `gorm:"column:on_hand_before;type:numeric(18,4);not null"`
	OnHandAfter  decimal.Decimal     `gorm:"column:on_hand_after;type:numeric(18,4);not null"`
	ActorUserID  *uuid.UUID          `gorm:"column:actor_user_id;type:uuid"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}

func (m *StockMove) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
