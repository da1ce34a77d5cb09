package models

import (
	"time"

	"gorm.io/gorm"
)

type EventStatus string

const (
	EventDraft     EventStatus = "DRAFT"
	EventConfirmed EventStatus = "CONFIRMED"
	EventCompleted EventStatus = "COMPLETED"
)

// Event is a banquet booking. Only confirmed events take part in purchasing.
type Event struct {
	gorm.Model
	Name         string          `gorm:"not null" json:"name"`
	Date         time.Time       `gorm:"not null;index" json:"date"`
	Pax          int             `gorm:"not null" json:"pax"`
	SafetyMargin float64         `gorm:"not null;default:1.1" json:"safety_margin"`
	Status       EventStatus     `gorm:"type:varchar(16);not null;default:DRAFT;index" json:"status"`
	MenuItems    []EventMenuItem `gorm:"foreignKey:EventID" json:"menu_items"`
}

type EventMenuItem struct {
	gorm.Model
	EventID          uint    `gorm:"not null;index" json:"event_id"`
	Position         int     `gorm:"not null;default:0" json:"position"`
	RecipeID         uint    `gorm:"not null" json:"recipe_id"`
	Recipe           *Recipe `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
	ServingsOverride *int    `json:"servings_override,omitempty"`
}

// Servings returns the override when it is set and positive, otherwise pax.
func (m EventMenuItem) Servings(pax int) int {
	if m.ServingsOverride != nil && *m.ServingsOverride > 0 {
		return *m.ServingsOverride
	}
	return pax
}
