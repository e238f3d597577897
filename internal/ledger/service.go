package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// Service records stock moves.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordScrapMove(ctx context.Context, input RecordScrapMoveInput) (*models.StockMove, error)
	ListForScrap(ctx context.Context, scrapOrderID uuid.UUID) ([]models.StockMove, error)
}

type service struct {
	repo Repository
}

// RecordScrapMoveInput captures the immutable data a scrap move requires.
type RecordScrapMoveInput struct {
	ScrapOrderID uuid.UUID       `json:"scrap_order_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	LocationID   *uuid.UUID      `json:"location_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	OnHandBefore decimal.Decimal `json:"on_hand_before"`
	OnHandAfter  decimal.Decimal `json:"on_hand_after"`
	ActorUserID  *uuid.UUID      `json:"actor_user_id"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) RecordScrapMove(ctx context.Context, input RecordScrapMoveInput) (*models.StockMove, error) {
	if input.ScrapOrderID == uuid.Nil {
		return nil, fmt.Errorf("scrap order id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, fmt.Errorf("product id is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if input.OnHandAfter.IsNegative() {
		return nil, fmt.Errorf("on-hand after move cannot be negative")
	}
	if !input.OnHandBefore.Sub(input.Quantity).Equal(input.OnHandAfter) {
		return nil, fmt.Errorf("on-hand %s - %s does not match %s", input.OnHandBefore, input.Quantity, input.OnHandAfter)
	}

	move := &models.StockMove{
		Type:         enums.StockMoveTypeScrap,
		ScrapOrderID: input.ScrapOrderID,
		ProductID:    input.ProductID,
		LocationID:   input.LocationID,
		Quantity:     input.Quantity,
		OnHandBefore: input.OnHandBefore,
		OnHandAfter:  input.OnHandAfter,
		ActorUserID:  input.ActorUserID,
	}

	if err := s.repo.Create(ctx, move); err != nil {
		return nil, err
	}
	return move, nil
}

func (s *service) ListForScrap(ctx context.Context, scrapOrderID uuid.UUID) ([]models.StockMove, error) {
	if scrapOrderID == uuid.Nil {
		return nil, fmt.Errorf("scrap order id is required")
	}
	return s.repo.ListByScrapOrderID(ctx, scrapOrderID)
}
