package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScrapBarcodeConfig holds the default reason tag for a company, or globally when CompanyID is nil.
type ScrapBarcodeConfig struct {
	ID                      uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name                    string          `gorm:"column:name;not null"`
	DefaultScrapReasonTagID *uuid.UUID      `gorm:"column:default_scrap_reason_tag_id;type:uuid"`
	DefaultScrapReasonTag   *ScrapReasonTag `gorm:"foreignKey:DefaultScrapReasonTagID"`
	Active                  bool            `gorm:"column:active;not null"`
	CompanyID               *uuid.UUID      `gorm:"column:company_id;type:uuid"`
	CreatedAt               time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (c *ScrapBarcodeConfig) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
