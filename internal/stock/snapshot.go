package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
)

// ProductReader loads products with their unit and inventory preloaded.
type ProductReader interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

// Line is the current stock position of one product.
type Line struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QtyAvailable decimal.Decimal `json:"qty_available"`
	Uom          string          `json:"uom"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Value        decimal.Decimal `json:"value"`
}

type Service struct {
	products ProductReader
}

func NewService(products ProductReader) *Service {
	return &Service{products: products}
}

// Snapshot reads on-hand, price and value for each known product id. Unknown ids are left out.
func (s *Service) Snapshot(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Line, error) {
	out := make(map[uuid.UUID]Line, len(ids))
	ids = distinct(ids)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		qty := p.OnHand()
		out[p.ID] = Line{
			ProductID:    p.ID,
			ProductName:  p.DisplayName(),
			QtyAvailable: qty,
			Uom:          p.UomName(),
			UnitPrice:    p.ListPrice,
			Value:        qty.Mul(p.ListPrice),
		}
	}
	return out, nil
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
