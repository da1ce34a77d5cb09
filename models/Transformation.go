package models

import (
	"gorm.io/gorm"

	"catering/internal/units"
)

// SupplierProduct is something that can be bought from a supplier as-is.
type SupplierProduct struct {
	gorm.Model
	Name     string     `gorm:"not null" json:"name"`
	Supplier string     `json:"supplier"`
	Price    float64    `gorm:"not null" json:"price"`
	Unit     units.Unit `gorm:"type:varchar(4);not null;default:KG" json:"unit"`
}

// Transformation records a yield test: one source product split into derived ingredients.
type Transformation struct {
	gorm.Model
	Name            string                 `gorm:"not null" json:"name"`
	SourceProductID uint                   `gorm:"not null;index" json:"source_product_id"`
	SourceProduct   *SupplierProduct       `gorm:"foreignKey:SourceProductID" json:"source_product,omitempty"`
	Outputs         []TransformationOutput `gorm:"foreignKey:TransformationID" json:"outputs"`
}

// TransformationOutput is the mass fraction of the source product that becomes Ingredient.
// Percentages of one transformation need not add up to 100; the rest is waste.
type TransformationOutput struct {
	gorm.Model
	TransformationID uint        `gorm:"not null;index" json:"transformation_id"`
	IngredientID     *uint       `gorm:"index" json:"ingredient_id,omitempty"`
	Ingredient       *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	Percentage       float64     `gorm:"not null" json:"percentage"`
	CostAllocation   float64     `gorm:"not null;default:1" json:"cost_allocation"`
}
