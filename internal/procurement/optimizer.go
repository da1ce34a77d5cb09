// Package procurement decides how to buy the aggregated ingredient demand:
// directly, or through a supplier product whose butchery yields the ingredient.
package procurement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"catering/internal/demand"
	applog "catering/internal/log"
	"catering/internal/units"
	"catering/models"
)

type RecommendationType string

const (
	Direct             RecommendationType = "DIRECT"
	FromTransformation RecommendationType = "TRANSFORMATION"
)

const (
	directReason      = "Compra directa (sin transformación conocida)"
	fallbackReason    = "Compra directa (ninguna transformación válida)"
	unknownOutput     = "Desconocido"
	directScore       = 100.0
	percentageDivisor = 100.0
)

// ErrInvalidYieldTest is returned by YieldPercentage for a non-positive test weight.
var ErrInvalidYieldTest = errors.New("procurement: test input weight must be positive")

// Coverage is a demanded ingredient satisfied by a purchase.
type Coverage struct {
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Percentage float64 `json:"percentage"`
}

// Surplus is output of a purchase that no known need absorbs.
type Surplus struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
}

// Recommendation is one purchase decision for one demanded ingredient.
type Recommendation struct {
	Type               RecommendationType `json:"type"`
	IngredientID       uint               `json:"ingredient_id"`
	ProductID          *uint              `json:"product_id,omitempty"`
	ProductName        string             `json:"product_name"`
	Supplier           string             `json:"supplier,omitempty"`
	QuantityToBuy      float64            `json:"quantity_to_buy"`
	Unit               units.Unit         `json:"unit"`
	Reason             string             `json:"reason"`
	Score              float64            `json:"score"`
	CoveredIngredients []Coverage         `json:"covered_ingredients"`
	WasteOrSurplus     []Surplus          `json:"waste_or_surplus"`
}

// Catalog lists the transformations that have ingredientID among their outputs.
type Catalog interface {
	TransformationsProducing(ctx context.Context, ingredientID uint) ([]models.Transformation, error)
}

type Optimizer struct {
	catalog Catalog
}

func NewOptimizer(catalog Catalog) *Optimizer {
	return &Optimizer{catalog: catalog}
}

// Recommend returns one recommendation per demanded ingredient, in the order
// the ingredients entered need. Each ingredient is resolved on its own, so two
// ingredients cut from the same source product each recommend buying it.
func (o *Optimizer) Recommend(ctx context.Context, need *demand.Map) ([]Recommendation, error) {
	recommendations := []Recommendation{}
	if need == nil {
		return recommendations, nil
	}

	for _, line := range need.Lines() {
		if line.Quantity <= 0 {
			continue
		}

		candidates, err := o.catalog.TransformationsProducing(ctx, line.IngredientID)
		if err != nil {
			return nil, fmt.Errorf("load transformations for %q: %w", line.Name(), err)
		}
		if len(candidates) == 0 {
			recommendations = append(recommendations, direct(line, directReason))
			continue
		}

		var best *candidate
		for i := range candidates {
			c, ok := evaluate(ctx, &candidates[i], line, need)
			if !ok {
				continue
			}
			if best == nil || c.score > best.score {
				best = &c
			}
		}
		if best == nil {
			recommendations = append(recommendations, direct(line, fallbackReason))
			continue
		}
		recommendations = append(recommendations, best.recommendation(line))
	}

	return recommendations, nil
}

func direct(line demand.Line, reason string) Recommendation {
	rec := Recommendation{
		Type:          Direct,
		IngredientID:  line.IngredientID,
		ProductName:   line.Name(),
		QuantityToBuy: line.Quantity,
		Unit:          line.Unit,
		Reason:        reason,
		Score:         directScore,
		CoveredIngredients: []Coverage{
			{Name: line.Name(), Quantity: line.Quantity, Percentage: directScore},
		},
		WasteOrSurplus: []Surplus{},
	}
	if line.Ingredient != nil {
		rec.Supplier = line.Ingredient.Supplier
	}
	return rec
}

type candidate struct {
	transformation *models.Transformation
	rawNeeded      float64
	score          float64
	covered        []Coverage
	waste          []Surplus
}

// evaluate scores buying trans for line. ok is false when trans cannot produce line.
func evaluate(ctx context.Context, trans *models.Transformation, line demand.Line, need *demand.Map) (candidate, bool) {
	var target *models.TransformationOutput
	for i := range trans.Outputs {
		out := &trans.Outputs[i]
		if out.IngredientID != nil && *out.IngredientID == line.IngredientID {
			target = out
			break
		}
	}
	if target == nil {
		return candidate{}, false
	}
	if target.Percentage <= 0 || trans.SourceProduct == nil {
		applog.Warn(ctx, "transformation skipped",
			"transformation", trans.Name, "ingredient", line.Name(), "percentage", target.Percentage)
		return candidate{}, false
	}

	rawNeeded := line.Quantity / (target.Percentage / percentageDivisor)
	useful := line.Quantity
	covered := []Coverage{{Name: line.Name(), Quantity: line.Quantity, Percentage: target.Percentage}}
	waste := []Surplus{}

	for i := range trans.Outputs {
		out := &trans.Outputs[i]
		if out.IngredientID != nil && *out.IngredientID == line.IngredientID {
			continue
		}
		produced := rawNeeded * (out.Percentage / percentageDivisor)
		name := outputName(out)

		var other demand.Line
		var demanded bool
		if out.IngredientID != nil {
			other, demanded = need.Get(*out.IngredientID)
		}
		if !demanded {
			waste = append(waste, Surplus{Name: name, Quantity: produced})
			continue
		}

		used := math.Min(produced, other.Quantity)
		useful += used
		covered = append(covered, Coverage{Name: name, Quantity: used, Percentage: out.Percentage})
		if produced > other.Quantity {
			waste = append(waste, Surplus{Name: name, Quantity: produced - other.Quantity})
		}
	}

	return candidate{
		transformation: trans,
		rawNeeded:      rawNeeded,
		score:          useful / rawNeeded * percentageDivisor,
		covered:        covered,
		waste:          waste,
	}, true
}

func outputName(out *models.TransformationOutput) string {
	if out.Ingredient == nil || out.Ingredient.Name == "" {
		return unknownOutput
	}
	return out.Ingredient.Name
}

func (c *candidate) recommendation(line demand.Line) Recommendation {
	product := c.transformation.SourceProduct
	productID := product.ID

	names := make([]string, 0, len(c.covered))
	for _, cov := range c.covered {
		names = append(names, cov.Name)
	}

	return Recommendation{
		Type:               FromTransformation,
		IngredientID:       line.IngredientID,
		ProductID:          &productID,
		ProductName:        product.Name,
		Supplier:           product.Supplier,
		QuantityToBuy:      c.rawNeeded,
		Unit:               product.Unit,
		Reason:             fmt.Sprintf("Mejor aprovechamiento (%d%%). Cubre: %s", int(math.Round(c.score)), strings.Join(names, ", ")),
		Score:              c.score,
		CoveredIngredients: c.covered,
		WasteOrSurplus:     c.waste,
	}
}

// YieldPercentage is the share of a yield test's input weight that became one output.
func YieldPercentage(outputWeight, testInputWeight float64) (float64, error) {
	if testInputWeight <= 0 {
		return 0, ErrInvalidYieldTest
	}
	return outputWeight / testInputWeight * percentageDivisor, nil
}
