package nomenclature

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
)

// Repository reads the stored barcode rules.
type Repository interface {
	ListRules(ctx context.Context) ([]models.BarcodeRule, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a rules repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListRules(ctx context.Context) ([]models.BarcodeRule, error) {
	var rules []models.BarcodeRule
	err := r.db.WithContext(ctx).
		Order("sequence ASC").
		Order("name ASC").
		Find(&rules).Error
	return rules, err
}
