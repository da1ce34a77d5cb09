// Package store loads the object graphs the planning engine works on.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	applog "catering/internal/log"
	"catering/internal/recipes"
	"catering/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// ErrInvalidItem is returned by AttachRecipeItem for a line that does not reference what its type says.
var ErrInvalidItem = errors.New("store: invalid recipe item")

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("position asc, id asc")
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id asc")
}

// Event loads one event with its menu and every recipe the menu reaches.
func (s *Store) Event(ctx context.Context, id uint) (*models.Event, error) {
	event := &models.Event{}
	err := s.db.WithContext(ctx).
		Preload("MenuItems", orderItems).
		First(event, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load event %d: %w", id, err)
	}

	if err := s.attachRecipes(ctx, []*models.Event{event}); err != nil {
		return nil, err
	}
	return event, nil
}

// ConfirmedEvents returns the confirmed events dated within [start, end], oldest first.
func (s *Store) ConfirmedEvents(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Preload("MenuItems", orderItems).
		Where("status = ? AND date >= ? AND date <= ?", models.EventConfirmed, start.UTC(), end.UTC()).
		Order("date asc, id asc").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("load confirmed events: %w", err)
	}

	ptrs := make([]*models.Event, len(events))
	for i := range events {
		ptrs[i] = &events[i]
	}
	if err := s.attachRecipes(ctx, ptrs); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "confirmed events loaded", "count", len(events), "start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly))
	return events, nil
}

func (s *Store) attachRecipes(ctx context.Context, events []*models.Event) error {
	var ids []uint
	for _, event := range events {
		for _, item := range event.MenuItems {
			ids = append(ids, item.RecipeID)
		}
	}

	graph, err := s.loadRecipes(ctx, ids)
	if err != nil {
		return err
	}

	for _, event := range events {
		for i := range event.MenuItems {
			event.MenuItems[i].Recipe = graph[event.MenuItems[i].RecipeID]
		}
	}
	return nil
}

// Recipe loads a recipe together with all of its sub-recipes, linked in memory.
func (s *Store) Recipe(ctx context.Context, id uint) (*models.Recipe, error) {
	graph, err := s.loadRecipes(ctx, []uint{id})
	if err != nil {
		return nil, err
	}
	recipe, ok := graph[id]
	if !ok {
		return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return recipe, nil
}

// loadRecipes fetches the requested recipes and, level by level, every sub-recipe
// they reference. Each recipe is loaded once and shared by all lines using it.
func (s *Store) loadRecipes(ctx context.Context, ids []uint) (map[uint]*models.Recipe, error) {
	loaded := make(map[uint]*models.Recipe)
	pending := unique(ids, loaded)

	for len(pending) > 0 {
		var batch []models.Recipe
		err := s.db.WithContext(ctx).
			Preload("Items", orderItems).
			Preload("Items.Ingredient").
			Where("id IN ?", pending).
			Find(&batch).Error
		if err != nil {
			return nil, fmt.Errorf("load recipes: %w", err)
		}

		var next []uint
		for i := range batch {
			recipe := &batch[i]
			loaded[recipe.ID] = recipe
			for _, item := range recipe.Items {
				if item.Type == models.RecipeItemSubRecipe && item.SubRecipeID != nil {
					next = append(next, *item.SubRecipeID)
				}
			}
		}
		pending = unique(next, loaded)
	}

	for _, recipe := range loaded {
		for i := range recipe.Items {
			item := &recipe.Items[i]
			if item.SubRecipeID != nil {
				item.SubRecipe = loaded[*item.SubRecipeID]
			}
		}
	}
	return loaded, nil
}

func unique(ids []uint, skip map[uint]*models.Recipe) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// TransformationsProducing returns the transformations with an output for ingredientID, by id.
func (s *Store) TransformationsProducing(ctx context.Context, ingredientID uint) ([]models.Transformation, error) {
	producing := s.db.Model(&models.TransformationOutput{}).
		Select("transformation_id").
		Where("ingredient_id = ?", ingredientID)

	var transformations []models.Transformation
	err := s.db.WithContext(ctx).
		Preload("SourceProduct").
		Preload("Outputs", orderByID).
		Preload("Outputs.Ingredient").
		Where("id IN (?)", producing).
		Order("id asc").
		Find(&transformations).Error
	if err != nil {
		return nil, fmt.Errorf("load transformations for ingredient %d: %w", ingredientID, err)
	}
	return transformations, nil
}

// AttachRecipeItem stores a new recipe line. A SUB_RECIPE line that would make a
// recipe contain itself is rejected with recipes.ErrCycle.
func (s *Store) AttachRecipeItem(ctx context.Context, item *models.RecipeItem) error {
	if item == nil || !item.Type.Valid() {
		return ErrInvalidItem
	}
	switch item.Type {
	case models.RecipeItemIngredient:
		if item.IngredientID == nil {
			return fmt.Errorf("%w: ingredient line without ingredient", ErrInvalidItem)
		}
	case models.RecipeItemSubRecipe:
		if item.SubRecipeID == nil {
			return fmt.Errorf("%w: sub-recipe line without sub-recipe", ErrInvalidItem)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Recipe{}).Where("id = ?", item.RecipeID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("recipe %d: %w", item.RecipeID, ErrNotFound)
		}

		if item.Type == models.RecipeItemSubRecipe {
			graph, err := subRecipeGraph(tx)
			if err != nil {
				return err
			}
			if err := graph.CheckEdge(item.RecipeID, *item.SubRecipeID); err != nil {
				return err
			}
		}

		return tx.Omit(clause.Associations).Create(item).Error
	})
}

// VerifyRecipeGraph checks the stored sub-recipe references and returns the
// deepest nesting level.
func (s *Store) VerifyRecipeGraph(ctx context.Context) (int, error) {
	graph, err := subRecipeGraph(s.db.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	return graph.MaxDepth()
}

func subRecipeGraph(tx *gorm.DB) (*recipes.Graph, error) {
	var edges []struct {
		RecipeID    uint
		SubRecipeID uint
	}
	err := tx.Model(&models.RecipeItem{}).
		Select("recipe_id, sub_recipe_id").
		Where("type = ? AND sub_recipe_id IS NOT NULL", models.RecipeItemSubRecipe).
		Scan(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("load sub-recipe edges: %w", err)
	}

	graph := recipes.NewGraph()
	for _, edge := range edges {
		graph.AddEdge(edge.RecipeID, edge.SubRecipeID)
	}
	return graph, nil
}
