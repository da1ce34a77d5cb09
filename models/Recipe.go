package models

import (
	"gorm.io/gorm"

	"catering/internal/units"
)

type Recipe struct {
	gorm.Model
	Name          string       `gorm:"not null" json:"name"`
	YieldQuantity float64      `gorm:"not null;default:1" json:"yield_quantity"`
	YieldUnit     units.Unit   `gorm:"type:varchar(4)" json:"yield_unit"`
	Instructions  string       `gorm:"type:text" json:"instructions"`
	Items         []RecipeItem `gorm:"foreignKey:RecipeID" json:"items"`
}

// EffectiveYield returns the yield used as a divisor. A zero or negative yield counts as one batch.
func (r *Recipe) EffectiveYield() float64 {
	if r == nil || r.YieldQuantity <= 0 {
		return 1
	}
	return r.YieldQuantity
}

// InYieldUnit expresses quantity (given in unit) in the recipe's yield unit. When the recipe has
// no yield unit, or the units do not share a dimension, quantity is returned unchanged and ok
// reports whether that was expected.
func (r *Recipe) InYieldUnit(quantity float64, unit units.Unit) (converted float64, ok bool) {
	if r == nil || !r.YieldUnit.Valid() || unit == r.YieldUnit {
		return quantity, true
	}
	converted, err := units.Convert(quantity, unit, r.YieldUnit)
	if err != nil {
		return quantity, false
	}
	return converted, true
}
