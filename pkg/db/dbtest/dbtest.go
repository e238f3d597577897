// Package dbtest opens migrated in-memory sqlite databases and seeds rows for package tests.
package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/scrapscan-backend/pkg/db/models"
	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// Open returns an isolated in-memory database with every model migrated.
func Open(t testing.TB, name string) *gorm.DB {
	t.Helper()
	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// Uom inserts a unit of measure.
func Uom(t testing.TB, db *gorm.DB, name string) *models.Uom {
	t.Helper()
	uom := &models.Uom{Name: name}
	if err := db.Create(uom).Error; err != nil {
		t.Fatalf("create uom: %v", err)
	}
	return uom
}

// ProductOpts customises a seeded product.
type ProductOpts struct {
	Name        string
	DefaultCode string
	Barcode     string
	Price       string
	OnHand      string
	Inactive    bool
	CompanyID   *uuid.UUID
	NoInventory bool
}

// Product inserts an active product with an inventory row holding OnHand.
func Product(t testing.TB, db *gorm.DB, uom *models.Uom, opts ProductOpts) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:      opts.Name,
		UomID:     uom.ID,
		ListPrice: decimalOrZero(t, opts.Price),
		Tracking:  enums.ProductTrackingNone,
		CompanyID: opts.CompanyID,
		Active:    !opts.Inactive,
	}
	if opts.DefaultCode != "" {
		code := opts.DefaultCode
		p.DefaultCode = &code
	}
	if opts.Barcode != "" {
		barcode := opts.Barcode
		p.Barcode = &barcode
	}
	if err := db.Omit("Uom", "Inventory").Create(p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	if !opts.NoInventory {
		SetOnHand(t, db, p.ID, opts.OnHand)
	}
	return p
}

// SetOnHand upserts the inventory row for productID.
func SetOnHand(t testing.TB, db *gorm.DB, productID uuid.UUID, qty string) {
	t.Helper()
	item := &models.InventoryItem{ProductID: productID, OnHandQty: decimalOrZero(t, qty)}
	if err := db.Save(item).Error; err != nil {
		t.Fatalf("save inventory: %v", err)
	}
}

// OnHand reads the stored on-hand quantity (zero when no row exists).
func OnHand(t testing.TB, db *gorm.DB, productID uuid.UUID) decimal.Decimal {
	t.Helper()
	var items []models.InventoryItem
	if err := db.Where("product_id = ?", productID).Limit(1).Find(&items).Error; err != nil {
		t.Fatalf("read inventory: %v", err)
	}
	if len(items) == 0 {
		return decimal.Zero
	}
	return items[0].OnHandQty
}

// Warehouse inserts a warehouse for companyID with its own lot-stock location.
func Warehouse(t testing.TB, db *gorm.DB, companyID uuid.UUID, name string) *models.Warehouse {
	t.Helper()
	loc := &models.Location{Name: name + "/Stock", CompanyID: &companyID}
	if err := db.Create(loc).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}
	wh := &models.Warehouse{CompanyID: companyID, Name: name, Code: name, LotStockLocationID: &loc.ID}
	if err := db.Omit("LotStockLocation").Create(wh).Error; err != nil {
		t.Fatalf("create warehouse: %v", err)
	}
	return wh
}

// ReasonTag inserts a scrap reason tag.
func ReasonTag(t testing.TB, db *gorm.DB, name string, sequence int) *models.ScrapReasonTag {
	t.Helper()
	tag := &models.ScrapReasonTag{Name: name, Sequence: sequence}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("create reason tag: %v", err)
	}
	return tag
}

func decimalOrZero(t testing.TB, value string) decimal.Decimal {
	t.Helper()
	if value == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}
