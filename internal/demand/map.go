// Package demand turns event menus into the quantity of each ingredient that has to be bought.
package demand

import (
	"context"
	"fmt"

	"catering/internal/audit"
	"catering/internal/units"
	"catering/models"
)

// Line is the running total for one ingredient, expressed in its pricing unit.
type Line struct {
	IngredientID  uint               `json:"ingredient_id"`
	Ingredient    *models.Ingredient `json:"-"`
	Quantity      float64            `json:"quantity"`
	Unit          units.Unit         `json:"unit"`
	EstimatedCost float64            `json:"estimated_cost"`
}

// Name returns the ingredient name, or an empty string for a detached line.
func (l Line) Name() string {
	if l.Ingredient == nil {
		return ""
	}
	return l.Ingredient.Name
}

// Map accumulates ingredient demand. Lines keep the order in which their
// ingredient was first added. A Map belongs to a single computation.
type Map struct {
	order []uint
	lines map[uint]*Line
	trail audit.Trail
}

func NewMap() *Map {
	return &Map{lines: make(map[uint]*Line)}
}

// Add converts quantity to the ingredient's pricing unit and merges it. It
// returns false, recording why, when the line has to be dropped.
func (m *Map) Add(ctx context.Context, ingredient *models.Ingredient, quantity float64, unit units.Unit) bool {
	if ingredient == nil {
		m.trail.Record(ctx, audit.ScopeDemand, "", "ingredient line without ingredient")
		return false
	}

	converted, err := units.Convert(quantity, unit, ingredient.PricingUnit)
	if err != nil {
		m.trail.Record(ctx, audit.ScopeDemand, ingredient.Name,
			fmt.Sprintf("could not convert %s to %s", unit, ingredient.PricingUnit))
		return false
	}

	if m.lines == nil {
		m.lines = make(map[uint]*Line)
	}
	line, ok := m.lines[ingredient.ID]
	if !ok {
		line = &Line{IngredientID: ingredient.ID, Ingredient: ingredient, Unit: ingredient.PricingUnit}
		m.lines[ingredient.ID] = line
		m.order = append(m.order, ingredient.ID)
	}
	line.Quantity += converted
	line.EstimatedCost += converted * ingredient.PricePerUnit
	return true
}

// Skip records a line that never reached Add.
func (m *Map) Skip(ctx context.Context, subject, reason string) {
	m.trail.Record(ctx, audit.ScopeDemand, subject, reason)
}

func (m *Map) Get(ingredientID uint) (Line, bool) {
	line, ok := m.lines[ingredientID]
	if !ok {
		return Line{}, false
	}
	return *line, true
}

// Lines returns a copy of every line in first-seen order.
func (m *Map) Lines() []Line {
	out := make([]Line, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.lines[id])
	}
	return out
}

func (m *Map) Len() int {
	return len(m.order)
}

// Skipped lists the lines dropped while building the map.
func (m *Map) Skipped() []audit.Entry {
	return m.trail.Entries()
}
