package rendering

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
	"maragu.dev/gomponents/html"
)

func TestRenderComponent(t *testing.T) {
	r := NewUniversalRenderer()
	ctx := context.Background()

	out, err := r.RenderComponent(ctx, html.Span(html.Class("badge"), g.Text("Spiel läuft")))
	require.NoError(t, err)
	assert.Equal(t, `<span class="badge">Spiel läuft</span>`, string(out))

	tc := templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>templ</p>")
		return err
	})
	out, err = r.RenderComponent(ctx, tc)
	require.NoError(t, err)
	assert.Equal(t, "<p>templ</p>", string(out))

	_, err = r.RenderComponent(ctx, 42)
	assert.ErrorContains(t, err, "unsupported component type: int")
}

func TestRenderPage_SetsHeaderBeforeStatus(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, NewUniversalRenderer().RenderPage(c, http.StatusCreated, html.Div(g.Text("ok"))))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, echo.MIMETextHTMLCharsetUTF8, rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "<div>ok</div>", rec.Body.String())
}

func TestRenderPage_FailingComponentWritesNothing(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	broken := templ.ComponentFunc(func(context.Context, io.Writer) error { return assert.AnError })
	err := NewUniversalRenderer().RenderPage(c, http.StatusOK, broken)
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, c.Response().Committed)
}
