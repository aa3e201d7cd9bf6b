package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"maragu.dev/gomponents"
)

// AdaptGomponentToTempl lets a gomponents node be used where a templ
// component is expected, e.g. as the body of a templ layout.
func AdaptGomponentToTempl(node gomponents.Node) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return node.Render(w)
	})
}

// AdaptTemplToGomponent lets a templ component be embedded in a gomponents
// tree. gomponents does not pass a context, so the component renders with
// context.Background.
func AdaptTemplToGomponent(component templ.Component) gomponents.Node {
	return gomponents.NodeFunc(func(w io.Writer) error {
		return component.Render(context.Background(), w)
	})
}
