package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"catering/internal/views/layout"
)

// Login renders the sign-in form. message is shown above the form when set.
func Login(message, email string) templ.Component {
	return layout.Page("Acceso", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		html := `<main><h1>Acceso a cocina</h1>`
		if message != "" {
			html += `<p role="alert">` + templ.EscapeString(message) + `</p>`
		}
		html += `<form method="post" action="/login">` +
			`<label>Email <input type="email" name="email" value="` + templ.EscapeString(email) + `" required></label>` +
			`<label>Contraseña <input type="password" name="password" required></label>` +
			`<button type="submit">Entrar</button></form></main>`
		_, err := io.WriteString(w, html)
		return err
	}))
}
