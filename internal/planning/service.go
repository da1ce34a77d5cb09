// Package planning exposes the purchasing engine to the HTTP handlers and the CLI.
package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"catering/internal/audit"
	"catering/internal/costing"
	"catering/internal/demand"
	applog "catering/internal/log"
	"catering/internal/money"
	"catering/internal/procurement"
	"catering/internal/store"
	"catering/internal/units"
	"catering/models"
)

var (
	ErrEventNotFound  = errors.New("planning: event not found")
	ErrRecipeNotFound = errors.New("planning: recipe not found")
	ErrInvalidRange   = errors.New("planning: start date is after end date")
)

const defaultHorizonDays = 14

// Source is the read path the service plans from.
type Source interface {
	Event(ctx context.Context, id uint) (*models.Event, error)
	ConfirmedEvents(ctx context.Context, start, end time.Time) ([]models.Event, error)
	Recipe(ctx context.Context, id uint) (*models.Recipe, error)
	procurement.Catalog
}

type Options struct {
	Mode        demand.Mode
	HorizonDays int
	Now         func() time.Time
}

type Service struct {
	source     Source
	aggregator *demand.Aggregator
	optimizer  *procurement.Optimizer
	costs      *costing.Engine
	horizon    int
	now        func() time.Time
}

func NewService(source Source, opts Options) *Service {
	horizon := opts.HorizonDays
	if horizon <= 0 {
		horizon = defaultHorizonDays
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		source:     source,
		aggregator: demand.NewAggregator(opts.Mode),
		optimizer:  procurement.NewOptimizer(source),
		costs:      costing.NewEngine(),
		horizon:    horizon,
		now:        now,
	}
}

// ShoppingList is the priced list of ingredients one event needs.
type ShoppingList struct {
	EventID        uint                  `json:"event_id"`
	Event          string                `json:"event"`
	Date           time.Time             `json:"date"`
	Items          []demand.ShoppingItem `json:"items"`
	EstimatedTotal float64               `json:"estimated_total"`
	Skipped        []audit.Entry         `json:"skipped"`
}

// GenerateShoppingList aggregates the demand of one event. A missing event yields an
// empty list together with ErrEventNotFound.
func (s *Service) GenerateShoppingList(ctx context.Context, eventID uint) (ShoppingList, error) {
	empty := ShoppingList{EventID: eventID, Items: []demand.ShoppingItem{}, Skipped: []audit.Entry{}}

	event, err := s.source.Event(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return empty, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	if err != nil {
		return empty, err
	}

	m := s.aggregator.AggregateEvent(ctx, event)
	items := demand.ShoppingList(m)
	total := 0.0
	for _, item := range items {
		total += item.EstimatedCost
	}

	applog.Debug(ctx, "shopping list generated", "event", event.ID, "items", len(items), "skipped", len(m.Skipped()))
	return ShoppingList{
		EventID:        event.ID,
		Event:          event.Name,
		Date:           event.Date,
		Items:          items,
		EstimatedTotal: money.Round(total),
		Skipped:        m.Skipped(),
	}, nil
}

// EventSummary identifies an event that contributed to a plan.
type EventSummary struct {
	ID   uint      `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
	Pax  int       `json:"pax"`
}

// Plan is one run of the purchasing optimizer over a date window.
type Plan struct {
	ID              uuid.UUID                    `json:"id"`
	Start           time.Time                    `json:"start"`
	End             time.Time                    `json:"end"`
	Mode            string                       `json:"flatten_mode"`
	Events          []EventSummary               `json:"events"`
	Demand          []demand.ShoppingItem        `json:"demand"`
	Recommendations []procurement.Recommendation `json:"recommendations"`
	Skipped         []audit.Entry                `json:"skipped"`
}

// DefaultRange is today through the configured horizon.
func (s *Service) DefaultRange() (time.Time, time.Time) {
	start := startOfDay(s.now())
	return start, start.AddDate(0, 0, s.horizon)
}

// CalculateSmartShoppingList sums the demand of every confirmed event dated between
// start and end (both days included) and recommends how to buy it.
func (s *Service) CalculateSmartShoppingList(ctx context.Context, start, end time.Time) (Plan, error) {
	from := startOfDay(start)
	to := startOfDay(end)
	if from.After(to) {
		return Plan{}, ErrInvalidRange
	}

	events, err := s.source.ConfirmedEvents(ctx, from, to.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		return Plan{}, err
	}

	m := demand.NewMap()
	summaries := make([]EventSummary, 0, len(events))
	for i := range events {
		event := &events[i]
		s.aggregator.Accumulate(ctx, m, event)
		summaries = append(summaries, EventSummary{ID: event.ID, Name: event.Name, Date: event.Date, Pax: event.Pax})
	}

	recommendations, err := s.optimizer.Recommend(ctx, m)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{
		ID:              uuid.New(),
		Start:           from,
		End:             to,
		Mode:            s.aggregator.Mode.String(),
		Events:          summaries,
		Demand:          demand.ShoppingList(m),
		Recommendations: recommendations,
		Skipped:         m.Skipped(),
	}
	applog.Info(ctx, "purchasing plan calculated",
		"plan", plan.ID.String(),
		"events", len(events),
		"ingredients", m.Len(),
		"recommendations", len(recommendations),
	)
	return plan, nil
}

// RecipeCost is the valuation of one recipe batch.
type RecipeCost struct {
	RecipeID       uint               `json:"recipe_id"`
	Recipe         string             `json:"recipe"`
	YieldQuantity  float64            `json:"yield_quantity"`
	YieldUnit      units.Unit         `json:"yield_unit,omitempty"`
	Total          float64            `json:"total"`
	PerServing     float64            `json:"per_serving"`
	TotalFormatted string             `json:"total_formatted"`
	Lines          []costing.LineCost `json:"lines"`
	Skipped        []audit.Entry      `json:"skipped"`
}

func (s *Service) RecipeCost(ctx context.Context, recipeID uint) (RecipeCost, error) {
	recipe, err := s.source.Recipe(ctx, recipeID)
	if errors.Is(err, store.ErrNotFound) {
		return RecipeCost{}, fmt.Errorf("%w: %d", ErrRecipeNotFound, recipeID)
	}
	if err != nil {
		return RecipeCost{}, err
	}

	breakdown, err := s.costs.RecipeCost(ctx, recipe)
	if err != nil {
		return RecipeCost{}, err
	}

	perServing := 0.0
	if recipe.YieldQuantity > 0 {
		perServing = breakdown.Total / recipe.YieldQuantity
	}
	return RecipeCost{
		RecipeID:       recipe.ID,
		Recipe:         recipe.Name,
		YieldQuantity:  recipe.YieldQuantity,
		YieldUnit:      recipe.YieldUnit,
		Total:          money.Round(breakdown.Total),
		PerServing:     money.Round(perServing),
		TotalFormatted: money.FormatEUR(breakdown.Total),
		Lines:          breakdown.Lines,
		Skipped:        breakdown.Skipped,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
