package costing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catering/internal/audit"
	"catering/internal/units"
	"catering/models"
)

// ErrCircularReference is returned when a recipe appears inside its own sub-recipe chain.
var ErrCircularReference = errors.New("costing: circular sub-recipe reference")

// LineCost is the contribution of one recipe line to the recipe total.
type LineCost struct {
	Name     string                `json:"name"`
	Type     models.RecipeItemType `json:"type"`
	Quantity float64               `json:"quantity"`
	Unit     units.Unit            `json:"unit"`
	Cost     float64               `json:"cost"`
}

// Breakdown is the result of costing one recipe batch.
type Breakdown struct {
	Total   float64       `json:"total"`
	Lines   []LineCost    `json:"lines"`
	Skipped []audit.Entry `json:"skipped"`
}

// Engine values recipes against ingredient prices.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// RecipeCost returns the cost of one batch (YieldQuantity units) of recipe.
// Lines that cannot be priced are skipped and listed in Breakdown.Skipped.
func (e *Engine) RecipeCost(ctx context.Context, recipe *models.Recipe) (Breakdown, error) {
	if recipe == nil {
		return Breakdown{Lines: []LineCost{}, Skipped: []audit.Entry{}}, nil
	}

	trail := &audit.Trail{}
	lines := make([]LineCost, 0, len(recipe.Items))
	total, err := e.cost(ctx, recipe, trail, map[*models.Recipe]bool{}, &lines)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{Total: total, Lines: lines, Skipped: trail.Entries()}, nil
}

func (e *Engine) cost(ctx context.Context, recipe *models.Recipe, trail *audit.Trail, path map[*models.Recipe]bool, lines *[]LineCost) (float64, error) {
	if path[recipe] {
		return 0, fmt.Errorf("%w: %q", ErrCircularReference, recipe.Name)
	}
	path[recipe] = true
	defer delete(path, recipe)

	total := 0.0
	for _, item := range recipe.Items {
		switch item.Type {
		case models.RecipeItemIngredient:
			ingredient := item.Ingredient
			if ingredient == nil {
				trail.Record(ctx, audit.ScopeCosting, recipe.Name, "ingredient line without ingredient")
				continue
			}
			quantity, err := units.Convert(item.QuantityGross, item.Unit, ingredient.PricingUnit)
			if err != nil {
				trail.Record(ctx, audit.ScopeCosting, ingredient.Name,
					fmt.Sprintf("cannot convert %s to %s", item.Unit, ingredient.PricingUnit))
				continue
			}
			lineCost := quantity * ingredient.PricePerUnit
			total += lineCost
			if lines != nil {
				*lines = append(*lines, LineCost{
					Name:     strings.TrimSpace(ingredient.Name),
					Type:     item.Type,
					Quantity: item.QuantityGross,
					Unit:     item.Unit,
					Cost:     lineCost,
				})
			}
		case models.RecipeItemSubRecipe:
			sub := item.SubRecipe
			if sub == nil {
				trail.Record(ctx, audit.ScopeCosting, recipe.Name, "sub-recipe line without sub-recipe")
				continue
			}
			subTotal, err := e.cost(ctx, sub, trail, path, nil)
			if err != nil {
				return 0, err
			}
			quantity := subRecipeQuantity(ctx, item, sub, trail)
			lineCost := subTotal / sub.EffectiveYield() * quantity
			total += lineCost
			if lines != nil {
				*lines = append(*lines, LineCost{
					Name:     strings.TrimSpace(sub.Name),
					Type:     item.Type,
					Quantity: item.QuantityGross,
					Unit:     item.Unit,
					Cost:     lineCost,
				})
			}
		default:
			trail.Record(ctx, audit.ScopeCosting, recipe.Name, fmt.Sprintf("unknown line type %q", item.Type))
		}
	}

	return total, nil
}

func subRecipeQuantity(ctx context.Context, item models.RecipeItem, sub *models.Recipe, trail *audit.Trail) float64 {
	quantity, ok := sub.InYieldUnit(item.QuantityGross, item.Unit)
	if !ok {
		trail.Record(ctx, audit.ScopeCosting, sub.Name,
			fmt.Sprintf("line unit %s does not match yield unit %s; using raw quantity", item.Unit, sub.YieldUnit))
	}
	return quantity
}

// CalculateRecipeCost is the plain total of Engine.RecipeCost. A circular
// recipe costs zero; callers that need to tell the difference use RecipeCost.
func CalculateRecipeCost(ctx context.Context, recipe *models.Recipe) float64 {
	breakdown, err := NewEngine().RecipeCost(ctx, recipe)
	if err != nil {
		return 0
	}
	return breakdown.Total
}

// CostPerServing divides the batch cost by the recipe yield; zero when the yield is not positive.
func CostPerServing(ctx context.Context, recipe *models.Recipe) float64 {
	if recipe == nil || recipe.YieldQuantity <= 0 {
		return 0
	}
	return CalculateRecipeCost(ctx, recipe) / recipe.YieldQuantity
}
