package layout

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const (
	// BodyClass styles the printable report body.
	BodyClass = "report"
	styles    = `body.report{font-family:system-ui,sans-serif;margin:2rem;color:#1f2933}
table{border-collapse:collapse;width:100%;margin:1rem 0}
th,td{border-bottom:1px solid #cbd2d9;padding:.4rem .6rem;text-align:left}
td.num{text-align:right;font-variant-numeric:tabular-nums}
.muted{color:#7b8794}.badge{font-size:.75rem;padding:.1rem .4rem;border-radius:.25rem;background:#e4e7eb}
@media print{form{display:none}}`
)

// Page wraps body in a standalone HTML document.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="es"><head><meta charset="utf-8"><title>`+
			templ.EscapeString(title)+`</title><style>`+styles+`</style></head><body class="`+BodyClass+`">`); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}
