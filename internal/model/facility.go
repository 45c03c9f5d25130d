package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// facilities: a bookable court. (CourtNumber, SportName) identifies it.
type Facility struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	CourtNumber   string `gorm:"type:varchar(32);not null;uniqueIndex:idx_facilities_court,priority:1"`
	SportName     string `gorm:"type:varchar(64);not null;uniqueIndex:idx_facilities_court,priority:2;index"`
	SportCategory string `gorm:"type:varchar(64)"`

	// Цена за один слот.
	CourtPrice int64  `gorm:"not null"`
	Image      string `gorm:"type:text"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (f *Facility) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
