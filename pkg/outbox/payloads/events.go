package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScrapValidatedEvent is emitted once a scrap order moved stock out of inventory.
type ScrapValidatedEvent struct {
	ScrapOrderID uuid.UUID       `json:"scrap_order_id"`
	Name         string          `json:"name"`
	ProductID    uuid.UUID       `json:"product_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	OnHandAfter  decimal.Decimal `json:"on_hand_after"`
	LocationID   *uuid.UUID      `json:"location_id,omitempty"`
	CompanyID    *uuid.UUID      `json:"company_id,omitempty"`
	ReasonTagIDs []uuid.UUID     `json:"reason_tag_ids"`
	DateDone     time.Time       `json:"date_done"`
}
