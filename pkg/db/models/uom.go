package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Uom is a unit of measure (Units, kg, ...).
type Uom struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name string    `gorm:"column:name;not null"`
}

func (u *Uom) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
