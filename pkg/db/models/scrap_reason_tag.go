package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ScrapReasonTag labels why stock was scrapped.
type ScrapReasonTag struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name     string    `gorm:"column:name;not null"`
	Sequence int       `gorm:"column:sequence;not null"`
}

func (t *ScrapReasonTag) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
