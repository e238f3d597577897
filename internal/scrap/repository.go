package scrap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db"
	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

const (
	namePrefix       = "SP"
	numberRetryLimit = 3
)

// Repository persists scrap orders.
type Repository struct {
	db *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateDraft numbers and inserts a draft order, then links its reason tags.
// Concurrent writers racing on the same number retry with the next one.
func (r *Repository) CreateDraft(ctx context.Context, order *models.ScrapOrder, tags []models.ScrapReasonTag) error {
	order.State = enums.ScrapStateDraft
	var err error
	for attempt := 0; attempt < numberRetryLimit; attempt++ {
		if err = r.insertNumbered(ctx, order); err == nil {
			break
		}
		if !db.IsUniqueViolation(err, "") {
			return err
		}
		order.ID = uuid.Nil
	}
	if err != nil {
		return fmt.Errorf("allocate scrap number: %w", err)
	}
	if len(tags) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(order).Association("ReasonTags").Append(tags)
}

func (r *Repository) insertNumbered(ctx context.Context, order *models.ScrapOrder) error {
	var next int64
	if err := r.db.WithContext(ctx).
		Model(&models.ScrapOrder{}).
		Select("COALESCE(MAX(number), 0) + 1").
		Scan(&next).Error; err != nil {
		return err
	}
	order.Number = next
	order.Name = FormatName(next)
	return r.db.WithContext(ctx).Omit("Product", "Uom", "ReasonTags").Create(order).Error
}

// FormatName renders the human reference of a scrap order number.
func FormatName(number int64) string {
	return fmt.Sprintf("%s/%05d", namePrefix, number)
}

// SetQuantity writes scrap_qty on the persisted row.
func (r *Repository) SetQuantity(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.ScrapOrder{}).
		Where("id = ? AND state = ?", id, enums.ScrapStateDraft).
		Update("scrap_qty", qty)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("draft scrap order %s not found", id)
	}
	return nil
}

// FindByID loads an order without associations.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ScrapOrder, error) {
	var order models.ScrapOrder
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindDetailed loads an order with product, unit and reason tags.
func (r *Repository) FindDetailed(ctx context.Context, id uuid.UUID) (*models.ScrapOrder, error) {
	var order models.ScrapOrder
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Uom").
		Preload("ReasonTags", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("sequence ASC").Order("name ASC")
		}).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkDone moves a draft order to done.
func (r *Repository) MarkDone(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.ScrapOrder{}).
		Where("id = ? AND state = ?", id, enums.ScrapStateDraft).
		Updates(map[string]any{
			"state":     enums.ScrapStateDone,
			"date_done": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("scrap order %s is not a draft", id)
	}
	return nil
}

// DeleteStaleDrafts removes draft orders created before cutoff together with their tag links.
// Drafts never moved stock, so nothing else references them.
func (r *Repository) DeleteStaleDrafts(ctx context.Context, cutoff time.Time) (int64, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.ScrapOrder{}).
		Where("state = ? AND created_at < ?", enums.ScrapStateDraft, cutoff).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	if err := r.db.WithContext(ctx).
		Exec("DELETE FROM scrap_order_reason_tags WHERE scrap_order_id IN ?", ids).Error; err != nil {
		return 0, err
	}
	res := r.db.WithContext(ctx).
		Where("id IN ? AND state = ?", ids, enums.ScrapStateDraft).
		Delete(&models.ScrapOrder{})
	return res.RowsAffected, res.Error
}
