package procurement

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"gorm.io/gorm"

	"catering/internal/demand"
	"catering/internal/units"
	"catering/models"
)

type fakeCatalog struct {
	byIngredient map[uint][]models.Transformation
	err          error
	calls        int
}

func (f *fakeCatalog) TransformationsProducing(_ context.Context, ingredientID uint) ([]models.Transformation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.byIngredient[ingredientID], nil
}

func uintPtr(v uint) *uint { return &v }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

var (
	punta    = &models.Ingredient{Model: gorm.Model{ID: 1}, Name: "Punta", PricingUnit: units.KG, PricePerUnit: 30}
	centro   = &models.Ingredient{Model: gorm.Model{ID: 2}, Name: "Centro", PricingUnit: units.KG, PricePerUnit: 45}
	recortes = &models.Ingredient{Model: gorm.Model{ID: 3}, Name: "Recortes", PricingUnit: units.KG, PricePerUnit: 8}
	sal      = &models.Ingredient{Model: gorm.Model{ID: 4}, Name: "Sal", PricingUnit: units.KG, PricePerUnit: 0.4, Supplier: "Salinas del Sur"}
)

func output(ing *models.Ingredient, pct float64) models.TransformationOutput {
	return models.TransformationOutput{IngredientID: uintPtr(ing.ID), Ingredient: ing, Percentage: pct, CostAllocation: 1}
}

func solomillo() models.Transformation {
	return models.Transformation{
		Model:           gorm.Model{ID: 1},
		Name:            "Limpieza de solomillo",
		SourceProductID: 10,
		SourceProduct:   &models.SupplierProduct{Model: gorm.Model{ID: 10}, Name: "Solomillo", Supplier: "Carnes Reunidas", Price: 28, Unit: units.KG},
		Outputs: []models.TransformationOutput{
			output(punta, 20),
			output(centro, 50),
			output(recortes, 10),
		},
	}
}

// catalogFor indexes transformations by every ingredient they produce.
func catalogFor(transformations ...models.Transformation) *fakeCatalog {
	c := &fakeCatalog{byIngredient: map[uint][]models.Transformation{}}
	for _, t := range transformations {
		for _, out := range t.Outputs {
			if out.IngredientID != nil {
				c.byIngredient[*out.IngredientID] = append(c.byIngredient[*out.IngredientID], t)
			}
		}
	}
	return c
}

func demandOf(t *testing.T, entries ...any) *demand.Map {
	t.Helper()
	m := demand.NewMap()
	for i := 0; i < len(entries); i += 2 {
		ing := entries[i].(*models.Ingredient)
		if !m.Add(context.Background(), ing, entries[i+1].(float64), ing.PricingUnit) {
			t.Fatalf("could not add %s", ing.Name)
		}
	}
	return m
}

func TestRecommendSingleNeedFromTransformation(t *testing.T) {
	t.Parallel()

	recs, err := NewOptimizer(catalogFor(solomillo())).Recommend(context.Background(), demandOf(t, punta, 2.0))
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Type != FromTransformation || rec.ProductName != "Solomillo" || rec.Supplier != "Carnes Reunidas" {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if rec.ProductID == nil || *rec.ProductID != 10 || rec.Unit != units.KG {
		t.Fatalf("unexpected product reference: %+v", rec)
	}
	if !almostEqual(rec.QuantityToBuy, 10) || !almostEqual(rec.Score, 20) {
		t.Fatalf("QuantityToBuy = %v, Score = %v, want 10 and 20", rec.QuantityToBuy, rec.Score)
	}
	if len(rec.CoveredIngredients) != 1 || rec.CoveredIngredients[0] != (Coverage{Name: "Punta", Quantity: 2, Percentage: 20}) {
		t.Fatalf("unexpected coverage: %+v", rec.CoveredIngredients)
	}
	if len(rec.WasteOrSurplus) != 2 ||
		rec.WasteOrSurplus[0].Name != "Centro" || !almostEqual(rec.WasteOrSurplus[0].Quantity, 5) ||
		rec.WasteOrSurplus[1].Name != "Recortes" || !almostEqual(rec.WasteOrSurplus[1].Quantity, 1) {
		t.Fatalf("unexpected waste: %+v", rec.WasteOrSurplus)
	}
	if rec.Reason != "Mejor aprovechamiento (20%). Cubre: Punta" {
		t.Fatalf("unexpected reason: %q", rec.Reason)
	}
}

func TestRecommendDirectWithoutTransformation(t *testing.T) {
	t.Parallel()

	recs, err := NewOptimizer(catalogFor(solomillo())).Recommend(context.Background(), demandOf(t, sal, 1.5))
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}

	rec := recs[0]
	if rec.Type != Direct || rec.Score != 100 || rec.QuantityToBuy != 1.5 || rec.ProductID != nil {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
	if rec.ProductName != "Sal" || rec.Supplier != "Salinas del Sur" || rec.Unit != units.KG {
		t.Fatalf("unexpected product: %+v", rec)
	}
	if len(rec.CoveredIngredients) != 1 || rec.CoveredIngredients[0] != (Coverage{Name: "Sal", Quantity: 1.5, Percentage: 100}) {
		t.Fatalf("unexpected coverage: %+v", rec.CoveredIngredients)
	}
	if rec.WasteOrSurplus == nil || len(rec.WasteOrSurplus) != 0 {
		t.Fatalf("expected empty waste, got %#v", rec.WasteOrSurplus)
	}
}

func TestRecommendPicksHighestScore(t *testing.T) {
	t.Parallel()

	whole := models.Transformation{
		Model:         gorm.Model{ID: 2},
		Name:          "Solomillo entero",
		SourceProduct: &models.SupplierProduct{Model: gorm.Model{ID: 11}, Name: "Solomillo premium", Unit: units.KG},
		Outputs:       []models.TransformationOutput{output(punta, 40)},
	}
	sameAsFirst := solomillo()
	sameAsFirst.Model.ID = 3
	sameAsFirst.SourceProduct = &models.SupplierProduct{Model: gorm.Model{ID: 12}, Name: "Solomillo bis", Unit: units.KG}

	tests := []struct {
		name    string
		catalog *fakeCatalog
		want    string
		score   float64
	}{
		{"higher score wins", catalogFor(solomillo(), whole), "Solomillo premium", 40},
		{"tie keeps first candidate", catalogFor(solomillo(), sameAsFirst), "Solomillo", 20},
	}

	for _, tt := range tests {
		recs, err := NewOptimizer(tt.catalog).Recommend(context.Background(), demandOf(t, punta, 2.0))
		if err != nil {
			t.Fatalf("%s: Recommend() error = %v", tt.name, err)
		}
		if len(recs) != 1 || recs[0].ProductName != tt.want || !almostEqual(recs[0].Score, tt.score) {
			t.Fatalf("%s: unexpected recommendations: %+v", tt.name, recs)
		}
	}
}

func TestRecommendCreditsOtherDemandedOutputs(t *testing.T) {
	t.Parallel()

	recs, err := NewOptimizer(catalogFor(solomillo())).Recommend(context.Background(), demandOf(t, punta, 2.0, centro, 3.0))
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(recs))
	}

	forPunta := recs[0]
	if !almostEqual(forPunta.QuantityToBuy, 10) || !almostEqual(forPunta.Score, 50) {
		t.Fatalf("punta: QuantityToBuy = %v, Score = %v", forPunta.QuantityToBuy, forPunta.Score)
	}
	if len(forPunta.CoveredIngredients) != 2 || !almostEqual(forPunta.CoveredIngredients[1].Quantity, 3) {
		t.Fatalf("punta: unexpected coverage %+v", forPunta.CoveredIngredients)
	}
	if len(forPunta.WasteOrSurplus) != 2 || forPunta.WasteOrSurplus[0].Name != "Centro" || !almostEqual(forPunta.WasteOrSurplus[0].Quantity, 2) {
		t.Fatalf("punta: unexpected waste %+v", forPunta.WasteOrSurplus)
	}
	if !strings.HasSuffix(forPunta.Reason, "Cubre: Punta, Centro") {
		t.Fatalf("punta: unexpected reason %q", forPunta.Reason)
	}

	forCentro := recs[1]
	if !almostEqual(forCentro.QuantityToBuy, 6) || !almostEqual(forCentro.Score, 70) {
		t.Fatalf("centro: QuantityToBuy = %v, Score = %v", forCentro.QuantityToBuy, forCentro.Score)
	}
}

// Each need is resolved independently, so a source product shared by two
// demanded cuts is recommended twice. This characterises the current
// behaviour; a joint allocation would merge these into one purchase.
func TestRecommendDoubleCountsSharedSourceProduct(t *testing.T) {
	t.Parallel()

	recs, err := NewOptimizer(catalogFor(solomillo())).Recommend(context.Background(), demandOf(t, punta, 2.0, centro, 3.0))
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	total := 0.0
	for _, rec := range recs {
		if rec.ProductID == nil || *rec.ProductID != 10 {
			t.Fatalf("expected every recommendation to buy product 10, got %+v", rec)
		}
		total += rec.QuantityToBuy
	}
	if !almostEqual(total, 16) {
		t.Fatalf("total Solomillo recommended = %v, want 16", total)
	}
}

func TestRecommendIgnoresDuplicateTargetOutputs(t *testing.T) {
	t.Parallel()

	dup := solomillo()
	dup.Outputs = append(dup.Outputs, output(punta, 30))

	recs, err := NewOptimizer(catalogFor(dup)).Recommend(context.Background(), demandOf(t, punta, 2.0))
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Type != FromTransformation {
		t.Fatalf("unexpected recommendations %+v", recs)
	}

	rec := recs[0]
	if !almostEqual(rec.QuantityToBuy, 10) || !almostEqual(rec.Score, 20) {
		t.Fatalf("QuantityToBuy = %v, Score = %v, want 10 and 20", rec.QuantityToBuy, rec.Score)
	}
	if len(rec.CoveredIngredients) != 1 || rec.CoveredIngredients[0].Name != "Punta" {
		t.Fatalf("unexpected coverage: %+v", rec.CoveredIngredients)
	}
	for _, w := range rec.WasteOrSurplus {
		if w.Name == "Punta" {
			t.Fatalf("duplicate target output reported as waste: %+v", rec.WasteOrSurplus)
		}
	}
}

func TestRecommendSkipsMalformedCandidates(t *testing.T) {
	t.Parallel()

	zero := solomillo()
	zero.Outputs[0].Percentage = 0

	orphan := solomillo()
	orphan.Outputs = append(orphan.Outputs, models.TransformationOutput{Percentage: 5})

	noTarget := solomillo()
	noTarget.Outputs = noTarget.Outputs[1:]

	tests := []struct {
		name      string
		catalog   *fakeCatalog
		wantType  RecommendationType
		wasteName string
	}{
		{"zero percentage falls back to direct", &fakeCatalog{byIngredient: map[uint][]models.Transformation{1: {zero}}}, Direct, ""},
		{"candidate without target output", &fakeCatalog{byIngredient: map[uint][]models.Transformation{1: {noTarget}}}, Direct, ""},
		{"output without ingredient is waste", catalogFor(orphan), FromTransformation, "Desconocido"},
	}

	for _, tt := range tests {
		recs, err := NewOptimizer(tt.catalog).Recommend(context.Background(), demandOf(t, punta, 2.0))
		if err != nil {
			t.Fatalf("%s: Recommend() error = %v", tt.name, err)
		}
		if len(recs) != 1 || recs[0].Type != tt.wantType {
			t.Fatalf("%s: unexpected recommendations %+v", tt.name, recs)
		}
		if tt.wasteName != "" {
			last := recs[0].WasteOrSurplus[len(recs[0].WasteOrSurplus)-1]
			if last.Name != tt.wasteName || !almostEqual(last.Quantity, 0.5) {
				t.Fatalf("%s: unexpected waste %+v", tt.name, recs[0].WasteOrSurplus)
			}
		}
	}
}

func TestRecommendEmptyDemand(t *testing.T) {
	t.Parallel()

	catalog := catalogFor(solomillo())
	opt := NewOptimizer(catalog)

	for _, need := range []*demand.Map{nil, demand.NewMap(), demandOf(t, punta, 0.0)} {
		recs, err := opt.Recommend(context.Background(), need)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if recs == nil || len(recs) != 0 {
			t.Fatalf("expected empty recommendations, got %#v", recs)
		}
	}
	if catalog.calls != 0 {
		t.Fatalf("catalog queried %d times for empty demand", catalog.calls)
	}
}

func TestRecommendPropagatesCatalogErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := NewOptimizer(&fakeCatalog{err: boom}).Recommend(context.Background(), demandOf(t, punta, 1.0))
	if !errors.Is(err, boom) {
		t.Fatalf("Recommend() error = %v, want boom", err)
	}
}

func TestYieldPercentage(t *testing.T) {
	t.Parallel()

	got, err := YieldPercentage(200, 1000)
	if err != nil || !almostEqual(got, 20) {
		t.Fatalf("YieldPercentage(200, 1000) = %v, %v", got, err)
	}
	if _, err := YieldPercentage(1, 0); !errors.Is(err, ErrInvalidYieldTest) {
		t.Fatalf("YieldPercentage with zero input error = %v", err)
	}
}
