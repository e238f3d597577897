package scrapconfig

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveForScope returns the active config for companyID, falling back to a global one.
// Company-scoped configs win over global ones; within a scope the newest wins.
func (r *Repository) FindActiveForScope(ctx context.Context, companyID *uuid.UUID) (*models.ScrapBarcodeConfig, error) {
	q := r.db.WithContext(ctx).Model(&models.ScrapBarcodeConfig{}).Where("active = ?", true)
	if companyID != nil {
		q = q.Where("company_id = ? OR company_id IS NULL", *companyID)
	} else {
		q = q.Where("company_id IS NULL")
	}

	var rows []models.ScrapBarcodeConfig
	err := q.
		Order("CASE WHEN company_id IS NULL THEN 1 ELSE 0 END").
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// List returns the configs visible to companyID (its own plus global ones), newest first.
func (r *Repository) List(ctx context.Context, companyID *uuid.UUID) ([]models.ScrapBarcodeConfig, error) {
	q := r.db.WithContext(ctx).Preload("DefaultScrapReasonTag")
	if companyID != nil {
		q = q.Where("company_id = ? OR company_id IS NULL", *companyID)
	}
	var rows []models.ScrapBarcodeConfig
	err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScrapBarcodeConfig, error) {
	var row models.ScrapBarcodeConfig
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, cfg *models.ScrapBarcodeConfig) error {
	return r.db.WithContext(ctx).Omit("DefaultScrapReasonTag").Create(cfg).Error
}

// Update persists the given columns of an existing config.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ScrapBarcodeConfig{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// TagExists reports whether a reason tag with id is stored.
func (r *Repository) TagExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ScrapReasonTag{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
