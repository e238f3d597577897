package scrap

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scrapscan-backend/internal/stock"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// Line is one requested scrap: a product, a quantity and optionally the unit it was counted in.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UomID     *uuid.UUID      `json:"uom_id,omitempty"`
}

// CommitBatchInput is a full batch as confirmed by the operator.
type CommitBatchInput struct {
	Lines        []Line
	ReasonTagIDs []uuid.UUID
	CompanyID    *uuid.UUID
	ActorUserID  *uuid.UUID
	ActorRole    string
}

// CommittedLine is a validated scrap order created from one line.
type CommittedLine struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Uom         string          `json:"uom"`
}

// SkippedLine is a line that produced no scrap order.
type SkippedLine struct {
	ProductID   uuid.UUID             `json:"product_id"`
	ProductName string                `json:"product_name,omitempty"`
	Reason      enums.ScrapSkipReason `json:"reason"`
}

// BatchResult summarises a committed batch.
type BatchResult struct {
	Success      bool                     `json:"success"`
	Scraps       []CommittedLine          `json:"scraps"`
	Skipped      []SkippedLine            `json:"skipped"`
	SkippedNames []string                 `json:"skipped_products"`
	ScrapCount   int                      `json:"scrap_count"`
	StockAfter   map[uuid.UUID]stock.Line `json:"stock_after"`
}

// ReasonTagDTO is the public view of a reason tag.
type ReasonTagDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// OrderDTO is the detail view of a scrap order.
type OrderDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	State       enums.ScrapState `json:"state"`
	ProductID   uuid.UUID        `json:"product_id"`
	ProductName string           `json:"product_name"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UomID       uuid.UUID        `json:"uom_id"`
	Uom         string           `json:"uom"`
	LocationID  *uuid.UUID       `json:"location_id"`
	ReasonTags  []ReasonTagDTO   `json:"reason_tags"`
	CreatedBy   *uuid.UUID       `json:"created_by"`
	DateDone    *time.Time       `json:"date_done"`
	CreatedAt   time.Time        `json:"created_at"`
}

func toTagDTOs(tags []models.ScrapReasonTag) []ReasonTagDTO {
	out := make([]ReasonTagDTO, 0, len(tags))
	for _, tag := range tags {
		out = append(out, ReasonTagDTO{ID: tag.ID, Name: tag.Name})
	}
	return out
}

func toOrderDTO(order *models.ScrapOrder) *OrderDTO {
	dto := &OrderDTO{
		ID:         order.ID,
		Name:       order.Name,
		State:      order.State,
		ProductID:  order.ProductID,
		Quantity:   order.ScrapQty,
		UomID:      order.UomID,
		LocationID: order.LocationID,
		ReasonTags: toTagDTOs(order.ReasonTags),
		CreatedBy:  order.CreatedBy,
		DateDone:   order.DateDone,
		CreatedAt:  order.CreatedAt,
	}
	if order.Product != nil {
		dto.ProductName = order.Product.DisplayName()
	}
	if order.Uom != nil {
		dto.Uom = order.Uom.Name
	}
	return dto
}
