package demand

import (
	"context"
	"fmt"
	"strings"

	"catering/internal/units"
	"catering/models"
)

// Mode selects how deep sub-recipes are expanded.
type Mode int

const (
	// FlattenOneLevel expands the ingredients of direct sub-recipes only. Deeper
	// sub-recipes are reported as skipped.
	FlattenOneLevel Mode = iota
	// FlattenRecursive expands sub-recipes at any depth.
	FlattenRecursive
)

func (m Mode) String() string {
	switch m {
	case FlattenRecursive:
		return "recursive"
	default:
		return "legacy"
	}
}

// ParseMode understands the PLANNING_FLATTEN_MODE values.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "legacy", "one-level":
		return FlattenOneLevel, nil
	case "recursive":
		return FlattenRecursive, nil
	default:
		return FlattenOneLevel, fmt.Errorf("demand: unknown flatten mode %q", value)
	}
}

type Aggregator struct {
	Mode Mode
}

func NewAggregator(mode Mode) *Aggregator {
	return &Aggregator{Mode: mode}
}

// AggregateEvent returns the ingredient demand of a single event.
func (a *Aggregator) AggregateEvent(ctx context.Context, event *models.Event) *Map {
	m := NewMap()
	a.Accumulate(ctx, m, event)
	return m
}

// Accumulate adds the demand of event to m. Calling it for several events sums them.
func (a *Aggregator) Accumulate(ctx context.Context, m *Map, event *models.Event) {
	if event == nil {
		return
	}
	for _, menuItem := range event.MenuItems {
		recipe := menuItem.Recipe
		if recipe == nil {
			m.Skip(ctx, event.Name, fmt.Sprintf("menu item %d has no recipe", menuItem.RecipeID))
			continue
		}
		servings := float64(menuItem.Servings(event.Pax)) * event.SafetyMargin
		factor := servings / recipe.EffectiveYield()

		if a.Mode == FlattenRecursive {
			a.expand(ctx, m, recipe, factor, map[*models.Recipe]bool{})
			continue
		}
		a.expandOneLevel(ctx, m, recipe, factor)
	}
}

func (a *Aggregator) expandOneLevel(ctx context.Context, m *Map, recipe *models.Recipe, factor float64) {
	for _, item := range recipe.Items {
		switch item.Type {
		case models.RecipeItemIngredient:
			m.Add(ctx, item.Ingredient, item.QuantityGross*factor, item.Unit)
		case models.RecipeItemSubRecipe:
			sub := item.SubRecipe
			if sub == nil {
				m.Skip(ctx, recipe.Name, "sub-recipe line without sub-recipe")
				continue
			}
			subFactor := subRecipeFactor(ctx, m, item, sub, factor)
			for _, subItem := range sub.Items {
				switch subItem.Type {
				case models.RecipeItemIngredient:
					m.Add(ctx, subItem.Ingredient, subItem.QuantityGross*subFactor, subItem.Unit)
				case models.RecipeItemSubRecipe:
					m.Skip(ctx, sub.Name, "nested sub-recipe not expanded in legacy mode")
				}
			}
		default:
			m.Skip(ctx, recipe.Name, fmt.Sprintf("unknown line type %q", item.Type))
		}
	}
}

func (a *Aggregator) expand(ctx context.Context, m *Map, recipe *models.Recipe, factor float64, path map[*models.Recipe]bool) {
	if path[recipe] {
		m.Skip(ctx, recipe.Name, "circular sub-recipe reference")
		return
	}
	path[recipe] = true
	defer delete(path, recipe)

	for _, item := range recipe.Items {
		switch item.Type {
		case models.RecipeItemIngredient:
			m.Add(ctx, item.Ingredient, item.QuantityGross*factor, item.Unit)
		case models.RecipeItemSubRecipe:
			sub := item.SubRecipe
			if sub == nil {
				m.Skip(ctx, recipe.Name, "sub-recipe line without sub-recipe")
				continue
			}
			a.expand(ctx, m, sub, subRecipeFactor(ctx, m, item, sub, factor), path)
		default:
			m.Skip(ctx, recipe.Name, fmt.Sprintf("unknown line type %q", item.Type))
		}
	}
}

// subRecipeFactor is the number of sub-recipe batches one line consumes, scaled by factor.
func subRecipeFactor(ctx context.Context, m *Map, item models.RecipeItem, sub *models.Recipe, factor float64) float64 {
	quantity, ok := sub.InYieldUnit(item.QuantityGross, item.Unit)
	if !ok {
		m.Skip(ctx, sub.Name, fmt.Sprintf("line unit %s does not match yield unit %s; using raw quantity", item.Unit, sub.YieldUnit))
	}
	return quantity * factor / sub.EffectiveYield()
}

// ShoppingItem is one row of an event shopping list.
type ShoppingItem struct {
	IngredientID  uint       `json:"ingredient_id"`
	Ingredient    string     `json:"ingredient"`
	Category      string     `json:"category"`
	Supplier      string     `json:"supplier,omitempty"`
	TotalQuantity float64    `json:"total_quantity"`
	Unit          units.Unit `json:"unit"`
	EstimatedCost float64    `json:"estimated_cost"`
}

// ShoppingList projects m into shopping list rows, in first-seen order.
func ShoppingList(m *Map) []ShoppingItem {
	if m == nil {
		return []ShoppingItem{}
	}
	items := make([]ShoppingItem, 0, m.Len())
	for _, line := range m.Lines() {
		item := ShoppingItem{
			IngredientID:  line.IngredientID,
			TotalQuantity: line.Quantity,
			Unit:          line.Unit,
			EstimatedCost: line.EstimatedCost,
		}
		if line.Ingredient != nil {
			item.Ingredient = line.Ingredient.Name
			item.Category = line.Ingredient.Category
			item.Supplier = line.Ingredient.Supplier
		}
		items = append(items, item)
	}
	return items
}
