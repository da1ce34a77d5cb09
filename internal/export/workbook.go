// Package export writes purchasing plans as spreadsheets the buyers can forward to suppliers.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"catering/internal/planning"
)

const (
	SheetPurchases = "Compras"
	SheetDemand    = "Demanda"
	SheetEvents    = "Eventos"
	SheetSkipped   = "Omitidas"

	// ContentType is the media type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Filename names the workbook after the plan window.
func Filename(plan planning.Plan) string {
	return fmt.Sprintf("compras_%s_%s.xlsx", plan.Start.Format("20060102"), plan.End.Format("20060102"))
}

// purchasingWorkbook builds one sheet per section of the plan. The caller owns the
// returned file and must Close it.
func purchasingWorkbook(plan planning.Plan) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetPurchases); err != nil {
		f.Close()
		return nil, err
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}

	purchases := [][]any{{"Tipo", "Producto", "Proveedor", "Cantidad", "Unidad", "Aprovechamiento %", "Cubre", "Merma / excedente", "Motivo"}}
	for _, rec := range plan.Recommendations {
		covered := make([]string, 0, len(rec.CoveredIngredients))
		for _, c := range rec.CoveredIngredients {
			covered = append(covered, c.Name)
		}
		waste := make([]string, 0, len(rec.WasteOrSurplus))
		for _, w := range rec.WasteOrSurplus {
			waste = append(waste, fmt.Sprintf("%s (%.3f)", w.Name, w.Quantity))
		}
		purchases = append(purchases, []any{
			string(rec.Type), rec.ProductName, rec.Supplier, rec.QuantityToBuy, string(rec.Unit),
			rec.Score, strings.Join(covered, ", "), strings.Join(waste, ", "), rec.Reason,
		})
	}

	demand := [][]any{{"Ingrediente", "Categoría", "Proveedor", "Cantidad", "Unidad", "Coste estimado"}}
	for _, item := range plan.Demand {
		demand = append(demand, []any{item.Ingredient, item.Category, item.Supplier, item.TotalQuantity, string(item.Unit), item.EstimatedCost})
	}

	events := [][]any{{"Evento", "Fecha", "Pax"}}
	for _, event := range plan.Events {
		events = append(events, []any{event.Name, event.Date.Format("02/01/2006"), event.Pax})
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetPurchases, purchases},
		{SheetDemand, demand},
		{SheetEvents, events},
	}
	if len(plan.Skipped) > 0 {
		skipped := [][]any{{"Ámbito", "Línea", "Motivo"}}
		for _, entry := range plan.Skipped {
			skipped = append(skipped, []any{string(entry.Scope), entry.Subject, entry.Reason})
		}
		sheets = append(sheets, struct {
			name string
			rows [][]any
		}{SheetSkipped, skipped})
	}

	for _, sheet := range sheets {
		if err := writeSheet(f, sheet.name, sheet.rows, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", sheet.name, err)
		}
	}
	return f, nil
}

// WritePurchasingWorkbook streams the workbook for plan to w.
func WritePurchasingWorkbook(w io.Writer, plan planning.Plan) error {
	f, err := purchasingWorkbook(plan)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

func writeSheet(f *excelize.File, name string, rows [][]any, headerStyle int) error {
	if idx, _ := f.GetSheetIndex(name); idx < 0 {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	return f.SetColWidth(name, "A", lastCol, 18)
}
