package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
)

// Repository persists stock moves. Rows are append-only.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, move *models.StockMove) error
	ListByScrapOrderID(ctx context.Context, scrapOrderID uuid.UUID) ([]models.StockMove, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, move *models.StockMove) error {
	return r.db.WithContext(ctx).Create(move).Error
}

func (r *repository) ListByScrapOrderID(ctx context.Context, scrapOrderID uuid.UUID) ([]models.StockMove, error) {
	var moves []models.StockMove
	if err := r.db.WithContext(ctx).
		Where("scrap_order_id = ?", scrapOrderID).
		Order("created_at ASC").
		Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}
