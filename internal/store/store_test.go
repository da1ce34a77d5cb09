package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catering/internal/db"
	"catering/internal/recipes"
	"catering/internal/units"
	"catering/models"
)

type fixture struct {
	store *Store
	db    *gorm.DB

	tomato, onion, punta, centro models.Ingredient
	salsa, fondo, plato          models.Recipe
	confirmed, draft, later      models.Event
	solomillo                    models.Transformation
}

var day = time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)

func uintPtr(v uint) *uint { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:store-%d?mode=memory&cache=shared", time.Now().UnixNano())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f := &fixture{store: New(database), db: database}
	create := func(value any) {
		t.Helper()
		if err := database.Create(value).Error; err != nil {
			t.Fatalf("create %T: %v", value, err)
		}
	}

	f.tomato = models.Ingredient{Name: "Tomate", PricingUnit: units.KG, PricePerUnit: 2}
	f.onion = models.Ingredient{Name: "Cebolla", PricingUnit: units.KG, PricePerUnit: 1}
	f.punta = models.Ingredient{Name: "Punta", PricingUnit: units.KG, PricePerUnit: 30}
	f.centro = models.Ingredient{Name: "Centro", PricingUnit: units.KG, PricePerUnit: 45}
	for _, ing := range []*models.Ingredient{&f.tomato, &f.onion, &f.punta, &f.centro} {
		create(ing)
	}

	f.fondo = models.Recipe{Name: "Fondo", YieldQuantity: 1, YieldUnit: units.KG}
	f.salsa = models.Recipe{Name: "Salsa", YieldQuantity: 2, YieldUnit: units.KG}
	f.plato = models.Recipe{Name: "Plato", YieldQuantity: 10}
	for _, r := range []*models.Recipe{&f.fondo, &f.salsa, &f.plato} {
		create(r)
	}

	items := []models.RecipeItem{
		{RecipeID: f.fondo.ID, Position: 0, Type: models.RecipeItemIngredient, IngredientID: &f.onion.ID, QuantityGross: 0.2, Unit: units.KG},
		// Position 1 is created first so ordering by position is observable.
		{RecipeID: f.salsa.ID, Position: 1, Type: models.RecipeItemIngredient, IngredientID: &f.onion.ID, QuantityGross: 500, Unit: units.G},
		{RecipeID: f.salsa.ID, Position: 0, Type: models.RecipeItemIngredient, IngredientID: &f.tomato.ID, QuantityGross: 1, Unit: units.KG},
		{RecipeID: f.salsa.ID, Position: 2, Type: models.RecipeItemSubRecipe, SubRecipeID: &f.fondo.ID, QuantityGross: 1, Unit: units.KG},
		{RecipeID: f.plato.ID, Position: 0, Type: models.RecipeItemSubRecipe, SubRecipeID: &f.salsa.ID, QuantityGross: 1, Unit: units.KG},
		{RecipeID: f.plato.ID, Position: 1, Type: models.RecipeItemIngredient, IngredientID: &f.punta.ID, QuantityGross: 1.5, Unit: units.KG},
	}
	for i := range items {
		create(&items[i])
	}

	f.confirmed = models.Event{Name: "Boda", Date: day, Pax: 100, SafetyMargin: 1.1, Status: models.EventConfirmed}
	f.draft = models.Event{Name: "Borrador", Date: day, Pax: 50, SafetyMargin: 1.1, Status: models.EventDraft}
	f.later = models.Event{Name: "Congreso", Date: day.AddDate(0, 0, 30), Pax: 80, SafetyMargin: 1.2, Status: models.EventConfirmed}
	for _, ev := range []*models.Event{&f.confirmed, &f.draft, &f.later} {
		create(ev)
		create(&models.EventMenuItem{EventID: ev.ID, RecipeID: f.plato.ID})
	}

	product := models.SupplierProduct{Name: "Solomillo", Supplier: "Carnes Reunidas", Price: 28, Unit: units.KG}
	create(&product)
	f.solomillo = models.Transformation{Name: "Limpieza de solomillo", SourceProductID: product.ID}
	create(&f.solomillo)
	for _, out := range []models.TransformationOutput{
		{TransformationID: f.solomillo.ID, IngredientID: uintPtr(f.punta.ID), Percentage: 20},
		{TransformationID: f.solomillo.ID, IngredientID: uintPtr(f.centro.ID), Percentage: 50},
		{TransformationID: f.solomillo.ID, Percentage: 10},
	} {
		out := out
		create(&out)
	}

	return f
}

func TestEventLoadsLinkedRecipeGraph(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	event, err := f.store.Event(context.Background(), f.confirmed.ID)
	if err != nil {
		t.Fatalf("Event() error = %v", err)
	}
	if len(event.MenuItems) != 1 {
		t.Fatalf("expected 1 menu item, got %d", len(event.MenuItems))
	}

	plato := event.MenuItems[0].Recipe
	if plato == nil || plato.Name != "Plato" || len(plato.Items) != 2 {
		t.Fatalf("unexpected recipe: %+v", plato)
	}
	salsa := plato.Items[0].SubRecipe
	if salsa == nil || salsa.Name != "Salsa" {
		t.Fatalf("expected Salsa sub-recipe, got %+v", plato.Items[0])
	}
	if len(salsa.Items) != 3 || salsa.Items[0].Ingredient == nil || salsa.Items[0].Ingredient.Name != "Tomate" {
		t.Fatalf("expected salsa items ordered by position, got %+v", salsa.Items)
	}
	fondo := salsa.Items[2].SubRecipe
	if fondo == nil || fondo.Name != "Fondo" || fondo.Items[0].Ingredient.Name != "Cebolla" {
		t.Fatalf("expected nested Fondo sub-recipe, got %+v", salsa.Items[2])
	}
}

func TestEventNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if _, err := f.store.Event(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Event() error = %v, want ErrNotFound", err)
	}
	if _, err := f.store.Recipe(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Recipe() error = %v, want ErrNotFound", err)
	}
}

func TestConfirmedEventsFiltersStatusAndRange(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []string
	}{
		{"single day inclusive", day, day, []string{"Boda"}},
		{"whole window", day.AddDate(0, 0, -1), day.AddDate(0, 0, 31), []string{"Boda", "Congreso"}},
		{"empty window", day.AddDate(0, 0, 1), day.AddDate(0, 0, 2), nil},
	}

	for _, tt := range tests {
		events, err := f.store.ConfirmedEvents(ctx, tt.start, tt.end)
		if err != nil {
			t.Fatalf("%s: ConfirmedEvents() error = %v", tt.name, err)
		}
		if len(events) != len(tt.want) {
			t.Fatalf("%s: got %d events, want %d", tt.name, len(events), len(tt.want))
		}
		for i, ev := range events {
			if ev.Name != tt.want[i] {
				t.Fatalf("%s: event %d = %q, want %q", tt.name, i, ev.Name, tt.want[i])
			}
			if ev.MenuItems[0].Recipe == nil {
				t.Fatalf("%s: event %q has no recipe attached", tt.name, ev.Name)
			}
		}
	}
}

func TestConfirmedEventsShareRecipeInstances(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	events, err := f.store.ConfirmedEvents(context.Background(), day, day.AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("ConfirmedEvents() error = %v", err)
	}
	if len(events) != 2 || events[0].MenuItems[0].Recipe != events[1].MenuItems[0].Recipe {
		t.Fatal("expected both events to reference the same loaded recipe")
	}
}

func TestTransformationsProducing(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	list, err := f.store.TransformationsProducing(ctx, f.centro.ID)
	if err != nil {
		t.Fatalf("TransformationsProducing() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 transformation, got %d", len(list))
	}
	trans := list[0]
	if trans.SourceProduct == nil || trans.SourceProduct.Name != "Solomillo" {
		t.Fatalf("expected source product to be loaded, got %+v", trans.SourceProduct)
	}
	if len(trans.Outputs) != 3 || trans.Outputs[0].Ingredient == nil || trans.Outputs[0].Ingredient.Name != "Punta" {
		t.Fatalf("unexpected outputs: %+v", trans.Outputs)
	}
	if trans.Outputs[2].IngredientID != nil || trans.Outputs[2].CostAllocation != 1 {
		t.Fatalf("unexpected orphan output: %+v", trans.Outputs[2])
	}

	none, err := f.store.TransformationsProducing(ctx, f.tomato.ID)
	if err != nil {
		t.Fatalf("TransformationsProducing() error = %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no transformations for tomato, got %d", len(none))
	}
}

func TestAttachRecipeItemRejectsCycles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		item    models.RecipeItem
		wantErr error
	}{
		{"closes cycle", models.RecipeItem{RecipeID: f.fondo.ID, Type: models.RecipeItemSubRecipe, SubRecipeID: uintPtr(f.plato.ID), QuantityGross: 1, Unit: units.KG}, recipes.ErrCycle},
		{"self reference", models.RecipeItem{RecipeID: f.salsa.ID, Type: models.RecipeItemSubRecipe, SubRecipeID: uintPtr(f.salsa.ID), QuantityGross: 1, Unit: units.KG}, recipes.ErrCycle},
		{"missing parent", models.RecipeItem{RecipeID: 9999, Type: models.RecipeItemIngredient, IngredientID: uintPtr(f.tomato.ID), QuantityGross: 1, Unit: units.KG}, ErrNotFound},
		{"untyped", models.RecipeItem{RecipeID: f.salsa.ID, QuantityGross: 1, Unit: units.KG}, ErrInvalidItem},
		{"sub-recipe without reference", models.RecipeItem{RecipeID: f.salsa.ID, Type: models.RecipeItemSubRecipe, QuantityGross: 1, Unit: units.KG}, ErrInvalidItem},
		{"shared sub-recipe", models.RecipeItem{RecipeID: f.plato.ID, Type: models.RecipeItemSubRecipe, SubRecipeID: uintPtr(f.fondo.ID), QuantityGross: 1, Unit: units.KG}, nil},
	}

	for _, tt := range tests {
		item := tt.item
		err := f.store.AttachRecipeItem(ctx, &item)
		if tt.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: AttachRecipeItem() error = %v", tt.name, err)
			}
			if item.ID == 0 {
				t.Fatalf("%s: expected item to be persisted", tt.name)
			}
			continue
		}
		if !errors.Is(err, tt.wantErr) {
			t.Fatalf("%s: AttachRecipeItem() error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}

	plato, err := f.store.Recipe(ctx, f.plato.ID)
	if err != nil {
		t.Fatalf("Recipe() error = %v", err)
	}
	if len(plato.Items) != 3 {
		t.Fatalf("expected rejected items not to be stored, plato has %d items", len(plato.Items))
	}
}

func TestVerifyRecipeGraph(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	depth, err := f.store.VerifyRecipeGraph(ctx)
	if err != nil {
		t.Fatalf("VerifyRecipeGraph() error = %v", err)
	}
	if depth != 2 {
		t.Fatalf("expected plato -> salsa -> fondo to be 2 levels deep, got %d", depth)
	}

	loop := models.RecipeItem{RecipeID: f.fondo.ID, Type: models.RecipeItemSubRecipe, SubRecipeID: uintPtr(f.plato.ID), QuantityGross: 1, Unit: units.KG}
	if err := f.db.Create(&loop).Error; err != nil {
		t.Fatalf("insert cyclic line: %v", err)
	}
	if _, err := f.store.VerifyRecipeGraph(ctx); !errors.Is(err, recipes.ErrCycle) {
		t.Fatalf("expected ErrCycle for a stored loop, got %v", err)
	}
}
