package models

import (
	"gorm.io/gorm"

	"catering/internal/units"
)

// RecipeItemType tags what a recipe line points at.
type RecipeItemType string

const (
	RecipeItemIngredient RecipeItemType = "INGREDIENT"
	RecipeItemSubRecipe  RecipeItemType = "SUB_RECIPE"
)

// Valid reports whether t is one of the known line types.
func (t RecipeItemType) Valid() bool {
	switch t {
	case RecipeItemIngredient, RecipeItemSubRecipe:
		return true
	default:
		return false
	}
}

type RecipeItem struct {
	gorm.Model
	RecipeID      uint           `gorm:"not null;index" json:"recipe_id"` // Parent Recipe
	Position      int            `gorm:"not null;default:0" json:"position"`
	Type          RecipeItemType `gorm:"type:varchar(16);not null" json:"type"`
	QuantityGross float64        `gorm:"not null" json:"quantity_gross"`
	Unit          units.Unit     `gorm:"type:varchar(4);not null" json:"unit"`

	// Exactly one of these is set, matching Type.
	IngredientID *uint `json:"ingredient_id,omitempty"`
	SubRecipeID  *uint `json:"sub_recipe_id,omitempty"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
	SubRecipe  *Recipe     `gorm:"foreignKey:SubRecipeID" json:"sub_recipe,omitempty"`
}
