package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a stock location scrap orders draw from.
type Location struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Name      string     `gorm:"column:name;not null"`
	CompanyID *uuid.UUID `gorm:"column:company_id;type:uuid"`
}

func (l *Location) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

// Warehouse belongs to a company and owns a lot-stock location.
type Warehouse struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CompanyID          uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	Name               string     `gorm:"column:name;not null"`
	Code               string     `gorm:"column:code;not null"`
	LotStockLocationID *uuid.UUID `gorm:"column:lot_stock_location_id;type:uuid"`
	LotStockLocation   *Location  `gorm:"foreignKey:LotStockLocationID"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (w *Warehouse) BeforeCreate(*gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
