package models

import (
	"gorm.io/gorm"

	"catering/internal/units"
)

// Ingredient is a raw material priced per PricingUnit.
type Ingredient struct {
	gorm.Model
	Name         string     `gorm:"uniqueIndex;not null" json:"name"`
	Category     string     `json:"category"`
	PricingUnit  units.Unit `gorm:"type:varchar(4);not null;default:KG" json:"pricing_unit"`
	PricePerUnit float64    `gorm:"not null" json:"price_per_unit"`
	YieldPercent float64    `gorm:"not null;default:100" json:"yield_percent"`
	Allergens    string     `json:"allergens"`
	Supplier     string     `json:"supplier"`
}
