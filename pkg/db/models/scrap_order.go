package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// ScrapOrder removes ScrapQty of a product from on-hand stock once validated.
type ScrapOrder struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Number     int64            `gorm:"column:number;not null;uniqueIndex:ux_scrap_orders_number"`
	Name       string           `gorm:"column:name;not null"`
	ProductID  uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Product    *Product         `gorm:"foreignKey:ProductID"`
	UomID      uuid.UUID        `gorm:"column:uom_id;type:uuid;not null"`
	Uom        *Uom             `gorm:"foreignKey:UomID"`
	ScrapQty   decimal.Decimal  `gorm:"column:scrap_qty;type:numeric(18,4);not null"`
	LocationID *uuid.UUID       `gorm:"column:location_id;type:uuid"`
	CompanyID  *uuid.UUID       `gorm:"column:company_id;type:uuid"`
	State      enums.ScrapState `gorm:"column:state;not null"`
	CreatedBy  *uuid.UUID       `gorm:"column:created_by;type:uuid"`
	ReasonTags []ScrapReasonTag `gorm:"many2many:scrap_order_reason_tags;joinForeignKey:ScrapOrderID;joinReferences:ReasonTagID"`
	DateDone   *time.Time       `gorm:"column:date_done"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *ScrapOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
