package mock

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catering/internal/db"
	applog "catering/internal/log"
	"catering/internal/store"
	"catering/internal/units"
	"catering/models"
)

// Credentials of the seeded demo account.
const (
	DemoEmail    = "chef@catering.local"
	DemoPassword = "cocina"
)

// New returns an in-memory sqlite database seeded with a small kitchen: ingredients,
// recipes with a sub-recipe, upcoming events and the solomillo butchery yield test.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:catering-mock-%d?mode=memory&cache=shared", time.Now().UnixNano())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		PrepareStmt:                              true,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database, today()); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func today() time.Time {
	y, m, d := time.Now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func seed(ctx context.Context, database *gorm.DB, base time.Time) error {
	applog.Debug(ctx, "seeding mock database")
	tx := database.WithContext(ctx)

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &models.User{
		Name:         "Chef Demo",
		Email:        DemoEmail,
		PasswordHash: string(password),
		Role:         models.RoleChef,
	}
	if err := tx.Create(user).Error; err != nil {
		return err
	}

	tomate := models.Ingredient{Name: "Tomate", Category: "Verduras", PricingUnit: units.KG, PricePerUnit: 2, Supplier: "Huerta del Valle"}
	cebolla := models.Ingredient{Name: "Cebolla", Category: "Verduras", PricingUnit: units.KG, PricePerUnit: 1, Supplier: "Huerta del Valle"}
	patata := models.Ingredient{Name: "Patata", Category: "Verduras", PricingUnit: units.KG, PricePerUnit: 0.9, YieldPercent: 85, Supplier: "Huerta del Valle"}
	aceite := models.Ingredient{Name: "Aceite de oliva", Category: "Despensa", PricingUnit: units.L, PricePerUnit: 8.5, Supplier: "Almazara Sur"}
	sal := models.Ingredient{Name: "Sal", Category: "Despensa", PricingUnit: units.KG, PricePerUnit: 0.4}
	huevos := models.Ingredient{Name: "Huevos", Category: "Lácteos y huevos", PricingUnit: units.UD, PricePerUnit: 0.25, Allergens: "huevo"}
	punta := models.Ingredient{Name: "Punta de solomillo", Category: "Carnes", PricingUnit: units.KG, PricePerUnit: 32}
	centro := models.Ingredient{Name: "Centro de solomillo", Category: "Carnes", PricingUnit: units.KG, PricePerUnit: 48}
	recortes := models.Ingredient{Name: "Recortes de ternera", Category: "Carnes", PricingUnit: units.KG, PricePerUnit: 9}

	ingredients := []*models.Ingredient{&tomate, &cebolla, &patata, &aceite, &sal, &huevos, &punta, &centro, &recortes}
	for _, ingredient := range ingredients {
		if err := tx.Create(ingredient).Error; err != nil {
			return err
		}
	}

	salsa := models.Recipe{Name: "Salsa de tomate", YieldQuantity: 2, YieldUnit: units.KG, Instructions: "Sofreír la cebolla, añadir el tomate y reducir."}
	tortilla := models.Recipe{Name: "Tortilla de patatas", YieldQuantity: 8, YieldUnit: units.UD}
	solomillo := models.Recipe{Name: "Solomillo en salsa", YieldQuantity: 10, YieldUnit: units.UD}
	brocheta := models.Recipe{Name: "Brocheta de punta", YieldQuantity: 10, YieldUnit: units.UD}
	for _, recipe := range []*models.Recipe{&salsa, &tortilla, &solomillo, &brocheta} {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
	}

	ingredientLine := func(recipe *models.Recipe, position int, ingredient *models.Ingredient, quantity float64, unit units.Unit) models.RecipeItem {
		return models.RecipeItem{RecipeID: recipe.ID, Position: position, Type: models.RecipeItemIngredient, IngredientID: &ingredient.ID, QuantityGross: quantity, Unit: unit}
	}
	items := []models.RecipeItem{
		ingredientLine(&salsa, 0, &tomate, 1, units.KG),
		ingredientLine(&salsa, 1, &cebolla, 0.5, units.KG),
		ingredientLine(&salsa, 2, &aceite, 50, units.ML),

		ingredientLine(&tortilla, 0, &patata, 1, units.KG),
		ingredientLine(&tortilla, 1, &huevos, 6, units.UD),
		ingredientLine(&tortilla, 2, &aceite, 100, units.ML),
		ingredientLine(&tortilla, 3, &cebolla, 200, units.G),
		ingredientLine(&tortilla, 4, &sal, 10, units.G),

		ingredientLine(&solomillo, 0, &centro, 1.8, units.KG),
		{RecipeID: solomillo.ID, Position: 1, Type: models.RecipeItemSubRecipe, SubRecipeID: &salsa.ID, QuantityGross: 1, Unit: units.KG},
		ingredientLine(&solomillo, 2, &sal, 20, units.G),

		ingredientLine(&brocheta, 0, &punta, 1, units.KG),
		ingredientLine(&brocheta, 1, &sal, 10, units.G),
	}
	recipeStore := store.New(tx)
	for i := range items {
		if err := recipeStore.AttachRecipeItem(ctx, &items[i]); err != nil {
			return err
		}
	}

	product := models.SupplierProduct{Name: "Solomillo de ternera", Supplier: "Carnes Reunidas", Price: 28, Unit: units.KG}
	if err := tx.Create(&product).Error; err != nil {
		return err
	}
	limpieza := models.Transformation{Name: "Limpieza de solomillo", SourceProductID: product.ID}
	if err := tx.Create(&limpieza).Error; err != nil {
		return err
	}
	outputs := []models.TransformationOutput{
		{TransformationID: limpieza.ID, IngredientID: &punta.ID, Percentage: 20, CostAllocation: 0.8},
		{TransformationID: limpieza.ID, IngredientID: &centro.ID, Percentage: 50, CostAllocation: 1.3},
		{TransformationID: limpieza.ID, IngredientID: &recortes.ID, Percentage: 10, CostAllocation: 0.3},
	}
	for i := range outputs {
		if err := tx.Create(&outputs[i]).Error; err != nil {
			return err
		}
	}

	events := []struct {
		event models.Event
		menu  []models.EventMenuItem
	}{
		{
			event: models.Event{Name: "Boda García-López", Date: base.AddDate(0, 0, 3), Pax: 120, SafetyMargin: 1.1, Status: models.EventConfirmed},
			menu:  []models.EventMenuItem{{RecipeID: tortilla.ID}, {Position: 1, RecipeID: solomillo.ID}},
		},
		{
			event: models.Event{Name: "Cóctel de empresa", Date: base.AddDate(0, 0, 7), Pax: 60, SafetyMargin: 1.05, Status: models.EventConfirmed},
			menu:  []models.EventMenuItem{{RecipeID: brocheta.ID}, {Position: 1, RecipeID: tortilla.ID, ServingsOverride: intPtr(30)}},
		},
		{
			event: models.Event{Name: "Comunión", Date: base.AddDate(0, 0, 5), Pax: 40, SafetyMargin: 1.1, Status: models.EventDraft},
			menu:  []models.EventMenuItem{{RecipeID: tortilla.ID}},
		},
	}
	for i := range events {
		event := &events[i].event
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		for j := range events[i].menu {
			menuItem := events[i].menu[j]
			menuItem.EventID = event.ID
			if err := tx.Create(&menuItem).Error; err != nil {
				return err
			}
		}
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
