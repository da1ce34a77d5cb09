package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"catering/internal/costing"
	"catering/internal/export"
	applog "catering/internal/log"
	"catering/internal/planning"
	"catering/internal/procurement"
	"catering/internal/views/pages"
)

// EventShoppingList returns the aggregated ingredient list of one event.
func EventShoppingList(w http.ResponseWriter, r *http.Request) {
	if planner == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "planning not available")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	list, err := planner.GenerateShoppingList(r.Context(), id)
	if err != nil {
		if errors.Is(err, planning.ErrEventNotFound) {
			writeJSONError(w, http.StatusNotFound, "event not found")
			return
		}
		applog.Error(r.Context(), "failed to generate shopping list", "event", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to generate shopping list")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// RecipeCost values one batch of a recipe at current ingredient prices.
func RecipeCost(w http.ResponseWriter, r *http.Request) {
	if planner == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "planning not available")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cost, err := planner.RecipeCost(r.Context(), id)
	switch {
	case errors.Is(err, planning.ErrRecipeNotFound):
		writeJSONError(w, http.StatusNotFound, "recipe not found")
	case errors.Is(err, costing.ErrCircularReference):
		writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		applog.Error(r.Context(), "failed to cost recipe", "recipe", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to cost recipe")
	default:
		writeJSON(w, http.StatusOK, cost)
	}
}

// Purchasing runs the optimizer over the confirmed events in the requested window.
// start and end are YYYY-MM-DD and default to today through the planning horizon.
func Purchasing(w http.ResponseWriter, r *http.Request) {
	if planner == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "planning not available")
		return
	}
	start, end, err := requestRange(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := planner.CalculateSmartShoppingList(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, planning.ErrInvalidRange) {
			writeJSONError(w, http.StatusBadRequest, "start must not be after end")
			return
		}
		applog.Error(r.Context(), "failed to calculate purchasing plan", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to calculate purchasing plan")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// PurchasingReport renders the printable purchasing sheet for the requested window.
func PurchasingReport(w http.ResponseWriter, r *http.Request) {
	if planner == nil {
		http.Error(w, "planning not available", http.StatusServiceUnavailable)
		return
	}
	start, end, err := requestRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := planner.CalculateSmartShoppingList(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, planning.ErrInvalidRange) {
			http.Error(w, "la fecha de inicio es posterior a la de fin", http.StatusBadRequest)
			return
		}
		applog.Error(r.Context(), "failed to calculate purchasing report", "error", err)
		http.Error(w, "failed to calculate purchasing plan", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.PurchasingReport(reportData(plan)).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render purchasing report", "error", err)
	}
}

func reportData(plan planning.Plan) pages.PurchasingReportData {
	data := pages.PurchasingReportData{
		PlanID:      plan.ID.String(),
		Start:       plan.Start,
		End:         plan.End,
		Mode:        plan.Mode,
		GeneratedAt: time.Now(),
	}
	for _, event := range plan.Events {
		data.Events = append(data.Events, pages.PurchasingReportEvent{Name: event.Name, Date: event.Date, Pax: event.Pax})
	}
	for _, item := range plan.Demand {
		data.Demand = append(data.Demand, pages.PurchasingReportDemand{
			Ingredient:    item.Ingredient,
			Category:      item.Category,
			Quantity:      item.TotalQuantity,
			Unit:          item.Unit,
			EstimatedCost: item.EstimatedCost,
		})
	}
	for _, rec := range plan.Recommendations {
		data.Recommendations = append(data.Recommendations, reportLine(rec))
	}
	for _, entry := range plan.Skipped {
		data.Skipped = append(data.Skipped, fmt.Sprintf("%s: %s", entry.Subject, entry.Reason))
	}
	return data
}

func reportLine(rec procurement.Recommendation) pages.PurchasingReportLine {
	line := pages.PurchasingReportLine{
		Type:        string(rec.Type),
		ProductName: rec.ProductName,
		Supplier:    rec.Supplier,
		Quantity:    rec.QuantityToBuy,
		Unit:        rec.Unit,
		Score:       rec.Score,
		Reason:      rec.Reason,
	}
	for _, covered := range rec.CoveredIngredients {
		line.Covered = append(line.Covered, covered.Name)
	}
	for _, surplus := range rec.WasteOrSurplus {
		line.Waste = append(line.Waste, surplus.Name)
	}
	return line
}

func pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func requestRange(r *http.Request) (time.Time, time.Time, error) {
	start, end := planner.DefaultRange()
	query := r.URL.Query()
	if value := strings.TrimSpace(query.Get("start")); value != "" {
		parsed, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", value)
		}
		start = parsed
	}
	if value := strings.TrimSpace(query.Get("end")); value != "" {
		parsed, err := time.Parse(time.DateOnly, value)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", value)
		}
		end = parsed
	}
	return start, end, nil
}

// PurchasingExport downloads the purchasing plan for the requested window as a workbook.
func PurchasingExport(w http.ResponseWriter, r *http.Request) {
	if planner == nil {
		http.Error(w, "planning not available", http.StatusServiceUnavailable)
		return
	}
	start, end, err := requestRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := planner.CalculateSmartShoppingList(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, planning.ErrInvalidRange) {
			http.Error(w, "la fecha de inicio es posterior a la de fin", http.StatusBadRequest)
			return
		}
		applog.Error(r.Context(), "failed to calculate purchasing export", "error", err)
		http.Error(w, "failed to calculate purchasing plan", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePurchasingWorkbook(&buf, plan); err != nil {
		applog.Error(r.Context(), "failed to build purchasing workbook", "error", err)
		http.Error(w, "failed to build workbook", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(plan)))
	if _, err := buf.WriteTo(w); err != nil {
		applog.Error(r.Context(), "failed to write purchasing workbook", "error", err)
	}
}
