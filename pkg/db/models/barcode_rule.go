package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// BarcodeRule is one pattern of the active barcode nomenclature.
type BarcodeRule struct {
	ID       uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name     string                `gorm:"column:name;not null"`
	Type     enums.BarcodeRuleType `gorm:"column:type;not null"`
	Pattern  string                `gorm:"column:pattern;not null"`
	Sequence int                   `gorm:"column:sequence;not null"`
}

func (r *BarcodeRule) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
