package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout is the page shell. It loads htmx with the websocket extension and
// connects the body to the HTML socket, so that fragments pushed by the
// server replace the panels with the same id.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="de"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(pageTitle(title))+`</title>`+
			`<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">`+
			`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`+
			`<script src="https://unpkg.com/htmx-ext-ws@2.0.2/ws.js"></script>`+
			`</head><body class="bg-light" hx-ext="ws" ws-connect="/ws/html">`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func pageTitle(title string) string {
	if title != "" {
		return title + " - Planspiel"
	}
	return "Planspiel"
}
