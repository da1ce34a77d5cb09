package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"catering/internal/money"
	"catering/internal/units"
	"catering/internal/views/layout"
)

// PurchasingReportEvent is a confirmed event included in the plan.
type PurchasingReportEvent struct {
	Name string
	Date time.Time
	Pax  int
}

// PurchasingReportDemand is one aggregated ingredient requirement.
type PurchasingReportDemand struct {
	Ingredient    string
	Category      string
	Quantity      float64
	Unit          units.Unit
	EstimatedCost float64
}

// PurchasingReportLine is one purchase recommendation.
type PurchasingReportLine struct {
	Type        string
	ProductName string
	Supplier    string
	Quantity    float64
	Unit        units.Unit
	Score       float64
	Reason      string
	Covered     []string
	Waste       []string
}

// PurchasingReportData aggregates everything the printable purchasing sheet shows.
type PurchasingReportData struct {
	PlanID          string
	Start           time.Time
	End             time.Time
	Mode            string
	GeneratedAt     time.Time
	Events          []PurchasingReportEvent
	Demand          []PurchasingReportDemand
	Recommendations []PurchasingReportLine
	Skipped         []string
}

// EstimatedTotal sums the estimated cost of the aggregated demand.
func (d PurchasingReportData) EstimatedTotal() float64 {
	total := 0.0
	for _, line := range d.Demand {
		total += line.EstimatedCost
	}
	return total
}

// FormatReportQuantity renders a quantity with up to three decimals and the unit symbol.
func FormatReportQuantity(value float64, unit units.Unit) string {
	if unit == units.UD {
		return fmt.Sprintf("%.0f %s", value, unit)
	}
	text := strconv.FormatFloat(value, 'f', 3, 64)
	text = strings.TrimRight(strings.TrimRight(text, "0"), ".")
	return strings.Replace(text, ".", ",", 1) + " " + string(unit)
}

// FormatReportDate renders dates as the kitchen writes them.
func FormatReportDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02/01/2006")
}

// FormatScore renders a utilisation score as a whole percentage.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.0f%%", score)
}

// PurchasingReport renders the printable purchasing plan.
func PurchasingReport(data PurchasingReportData) templ.Component {
	title := fmt.Sprintf("Compras del %s al %s", FormatReportDate(data.Start), FormatReportDate(data.End))
	return layout.Page(title, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		esc := templ.EscapeString

		b.WriteString(`<header><h1>` + esc(title) + `</h1>`)
		b.WriteString(`<p class="muted">Plan ` + esc(data.PlanID) + ` · desglose ` + esc(data.Mode) +
			` · generado ` + esc(data.GeneratedAt.Format("02/01/2006 15:04")) + `</p>`)
		b.WriteString(`<form method="get" action="/app/purchasing/report">` +
			`<input type="date" name="start" value="` + esc(data.Start.Format(time.DateOnly)) + `">` +
			`<input type="date" name="end" value="` + esc(data.End.Format(time.DateOnly)) + `">` +
			`<button type="submit">Actualizar</button></form>`)
		b.WriteString(`<p><a href="/app/purchasing/export.xlsx?start=` + esc(data.Start.Format(time.DateOnly)) +
			`&amp;end=` + esc(data.End.Format(time.DateOnly)) + `">Descargar Excel</a></p></header>`)

		b.WriteString(`<section><h2>Eventos confirmados</h2>`)
		if len(data.Events) == 0 {
			b.WriteString(`<p class="muted">No hay eventos confirmados en este periodo.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>Evento</th><th>Fecha</th><th>Pax</th></tr></thead><tbody>`)
			for _, event := range data.Events {
				b.WriteString(`<tr><td>` + esc(event.Name) + `</td><td>` + esc(FormatReportDate(event.Date)) +
					`</td><td class="num">` + strconv.Itoa(event.Pax) + `</td></tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</section>`)

		b.WriteString(`<section><h2>Recomendaciones de compra</h2>`)
		if len(data.Recommendations) == 0 {
			b.WriteString(`<p class="muted">Nada que comprar.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>Tipo</th><th>Producto</th><th>Proveedor</th><th>Cantidad</th>` +
				`<th>Aprovechamiento</th><th>Cubre</th><th>Merma / excedente</th></tr></thead><tbody>`)
			for _, line := range data.Recommendations {
				b.WriteString(`<tr><td><span class="badge">` + esc(line.Type) + `</span></td>` +
					`<td>` + esc(line.ProductName) + `<br><small class="muted">` + esc(line.Reason) + `</small></td>` +
					`<td>` + esc(line.Supplier) + `</td>` +
					`<td class="num">` + esc(FormatReportQuantity(line.Quantity, line.Unit)) + `</td>` +
					`<td class="num">` + esc(FormatScore(line.Score)) + `</td>` +
					`<td>` + esc(strings.Join(line.Covered, ", ")) + `</td>` +
					`<td>` + esc(strings.Join(line.Waste, ", ")) + `</td></tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}
		b.WriteString(`</section>`)

		b.WriteString(`<section><h2>Demanda agregada</h2><table><thead><tr><th>Ingrediente</th><th>Categoría</th>` +
			`<th>Cantidad</th><th>Coste estimado</th></tr></thead><tbody>`)
		for _, line := range data.Demand {
			b.WriteString(`<tr><td>` + esc(line.Ingredient) + `</td><td>` + esc(line.Category) + `</td>` +
				`<td class="num">` + esc(FormatReportQuantity(line.Quantity, line.Unit)) + `</td>` +
				`<td class="num">` + esc(money.FormatEUR(line.EstimatedCost)) + `</td></tr>`)
		}
		b.WriteString(`</tbody><tfoot><tr><th colspan="3">Total estimado</th><td class="num">` +
			esc(money.FormatEUR(data.EstimatedTotal())) + `</td></tr></tfoot></table></section>`)

		if len(data.Skipped) > 0 {
			b.WriteString(`<section><h2>Líneas omitidas</h2><ul>`)
			for _, reason := range data.Skipped {
				b.WriteString(`<li>` + esc(reason) + `</li>`)
			}
			b.WriteString(`</ul></section>`)
		}

		_, err := io.WriteString(w, b.String())
		return err
	}))
}
