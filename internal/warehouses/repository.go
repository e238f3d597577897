package warehouses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
)

// Repository reads warehouses and their stock locations.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FirstForCompany returns the oldest warehouse of the company, or nil when it has none.
func (r *Repository) FirstForCompany(ctx context.Context, companyID uuid.UUID) (*models.Warehouse, error) {
	var rows []models.Warehouse
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// ScrapSourceLocation resolves the lot-stock location scrap orders are taken from.
// A nil company or a company without warehouses yields nil.
func (r *Repository) ScrapSourceLocation(ctx context.Context, companyID *uuid.UUID) (*uuid.UUID, error) {
	if companyID == nil {
		return nil, nil
	}
	wh, err := r.FirstForCompany(ctx, *companyID)
	if err != nil || wh == nil {
		return nil, err
	}
	return wh.LotStockLocationID, nil
}
