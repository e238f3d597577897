package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// Product is the catalog entry owned by the inventory system; this service only reads it.
type Product struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null"`
	DefaultCode *string               `gorm:"column:default_code"`
	Barcode     *string               `gorm:"column:barcode;index:idx_products_barcode"`
	UomID       uuid.UUID             `gorm:"column:uom_id;type:uuid;not null"`
	Uom         *Uom                  `gorm:"foreignKey:UomID"`
	ListPrice   decimal.Decimal       `gorm:"column:list_price;type:numeric(18,4);not null"`
	Tracking    enums.ProductTracking `gorm:"column:tracking;not null"`
	CompanyID   *uuid.UUID            `gorm:"column:company_id;type:uuid"`
	Active      bool                  `gorm:"column:active;not null"`
	ImageURL    *string               `gorm:"column:image_url"`
	Inventory   *InventoryItem        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// DisplayName prefixes the internal reference when one is set.
func (p Product) DisplayName() string {
	if p.DefaultCode != nil && *p.DefaultCode != "" {
		return fmt.Sprintf("[%s] %s", *p.DefaultCode, p.Name)
	}
	return p.Name
}

// UomName returns the unit of measure label, empty when not preloaded.
func (p Product) UomName() string {
	if p.Uom == nil {
		return ""
	}
	return p.Uom.Name
}

// OnHand returns the preloaded on-hand quantity, zero when the product has no inventory row.
func (p Product) OnHand() decimal.Decimal {
	if p.Inventory == nil {
		return decimal.Zero
	}
	return p.Inventory.OnHandQty
}
