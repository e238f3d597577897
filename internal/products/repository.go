package product

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
)

// ErrInsufficientStock is returned when a decrement would push on-hand below zero.
var ErrInsufficientStock = errors.New("insufficient on-hand stock")

// Repository reads the product catalog and maintains on-hand quantities.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Uom").Preload("Inventory")
}

// FindByID loads a product with its unit and inventory, archived products included.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.withDetails(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByBarcodes returns the first active product whose barcode is one of codes,
// or nil when none matches.
func (r *Repository) FindActiveByBarcodes(ctx context.Context, codes ...string) (*models.Product, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.withDetails(ctx).
		Where("active = ?", true).
		Where("barcode IN ?", codes).
		Order("id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// ListActiveWithBarcode returns every active product carrying a barcode, ordered by id.
func (r *Repository) ListActiveWithBarcode(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.withDetails(ctx).
		Where("active = ?", true).
		Where("barcode IS NOT NULL AND barcode <> ''").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListByIDs returns the products that exist among ids; unknown ids are ignored.
func (r *Repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var rows []models.Product
	err := r.withDetails(ctx).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// ListUomsByIDs returns the stored units among ids.
func (r *Repository) ListUomsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Uom, error) {
	if len(ids) == 0 {
		return []models.Uom{}, nil
	}
	var rows []models.Uom
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}

// GetOnHand reads the current on-hand quantity; products without an inventory row hold zero.
func (r *Repository) GetOnHand(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return decimal.Zero, err
	}
	if len(items) == 0 {
		return decimal.Zero, nil
	}
	return items[0].OnHandQty, nil
}

// DecrementOnHand removes qty from on-hand only when enough stock remains and reports
// the quantities around the change. It returns ErrInsufficientStock otherwise.
func (r *Repository) DecrementOnHand(ctx context.Context, productID uuid.UUID, qty decimal.Decimal) (before, after decimal.Decimal, err error) {
	if !qty.IsPositive() {
		return decimal.Zero, decimal.Zero, errors.New("decrement quantity must be positive")
	}
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND on_hand_qty >= ?", productID, qty).
		Updates(map[string]any{
			"on_hand_qty": gorm.Expr("on_hand_qty - ?", qty),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return decimal.Zero, decimal.Zero, res.Error
	}
	if res.RowsAffected == 0 {
		return decimal.Zero, decimal.Zero, ErrInsufficientStock
	}
	after, err = r.GetOnHand(ctx, productID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return after.Add(qty), after, nil
}
