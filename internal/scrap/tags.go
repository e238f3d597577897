package scrap

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
)

// TagRepository reads scrap reason tags.
type TagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// List returns every reason tag ordered by sequence then name.
func (r *TagRepository) List(ctx context.Context) ([]models.ScrapReasonTag, error) {
	var tags []models.ScrapReasonTag
	err := r.db.WithContext(ctx).Order("sequence ASC").Order("name ASC").Find(&tags).Error
	return tags, err
}

// FindByIDs returns the stored tags among ids.
func (r *TagRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.ScrapReasonTag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.ScrapReasonTag
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("sequence ASC").Order("name ASC").Find(&tags).Error
	return tags, err
}
