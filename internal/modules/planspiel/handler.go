package planspiel

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"maragu.dev/gomponents"

	"github.com/nfrund/planspiel/internal/handlers"
	"github.com/nfrund/planspiel/internal/middleware"
	"github.com/nfrund/planspiel/internal/modules/planspiel/components"
	"github.com/nfrund/planspiel/internal/modules/planspiel/topics"
	"github.com/nfrund/planspiel/internal/pubsub"
	"github.com/nfrund/planspiel/internal/rendering"
	"github.com/nfrund/planspiel/internal/ui"
	"github.com/nfrund/planspiel/internal/view"
)

const pageTitle = "Energiesystem-Planspiel"

type addPlayerRequest struct {
	Name string `form:"name" json:"name" validate:"required,max=40"`
	Role string `form:"role" json:"role" validate:"required"`
}

type playerRequest struct {
	PlayerID string `form:"player_id" json:"player_id" validate:"required"`
}

type investRequest struct {
	InvestmentID string `form:"investment_id" json:"investment_id" validate:"required"`
}

type forecastRequest struct {
	Scenario string `form:"scenario" json:"scenario" validate:"required"`
	Forecast string `form:"forecast" json:"forecast" validate:"required"`
}

// Handler serves the game board and its form actions.
//
// Actions sent by htmx are answered with the notice panel only; everything
// else reaches the browser through the HTML socket. Plain form posts get a
// flash message and a redirect to the board.
type Handler struct {
	controller *ui.Controller
	renderer   rendering.Renderer
	publisher  pubsub.Publisher
	now        func() time.Time
}

func NewHandler(controller *ui.Controller, renderer rendering.Renderer, publisher pubsub.Publisher, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{controller: controller, renderer: renderer, publisher: publisher, now: now}
}

// Page renders the full board.
func (h *Handler) Page(c echo.Context) error {
	// The client id names this browser's websocket connections.
	view.ClientID(c)

	v := h.controller.View()
	flash := view.GetFlashData(c)
	notice := components.Notice("", false)
	switch {
	case len(flash.Error) > 0:
		notice = components.Notice(flash.Error[len(flash.Error)-1], false)
	case len(flash.Success) > 0:
		notice = components.Success(flash.Success[len(flash.Success)-1])
	}
	body := gomponents.Group{notice, components.Board(v, h.activePlayer(c, v), h.now())}
	return h.renderer.RenderPage(c, http.StatusOK, components.Layout(pageTitle, view.AdaptGomponentToTempl(body)))
}

// Timer renders the countdown, polled by the board every second.
func (h *Handler) Timer(c echo.Context) error {
	return h.renderer.RenderPage(c, http.StatusOK, components.Timer(h.controller.View(), h.now()))
}

// State returns the game state as JSON.
func (h *Handler) State(c echo.Context) error {
	return c.JSON(http.StatusOK, h.controller.State())
}

func (h *Handler) AddPlayer(c echo.Context) error {
	var req addPlayerRequest
	if err := handlers.Bind(c, &req); err != nil {
		return err
	}
	p, err := h.controller.AddPlayer(req.Name, req.Role)
	if err == nil && view.PlayerID(c) == "" {
		_ = view.SetPlayerID(c, p.ID)
	}
	return h.respond(c, err, "Spieler hinzugefügt.")
}

func (h *Handler) RemovePlayer(c echo.Context) error {
	var req playerRequest
	if err := handlers.Bind(c, &req); err != nil {
		return err
	}
	err := h.controller.RemovePlayer(req.PlayerID)
	if err == nil && view.PlayerID(c) == req.PlayerID {
		_ = view.SetPlayerID(c, "")
	}
	return h.respond(c, err, "Spieler entfernt.")
}

// SelectPlayer switches the player this browser acts as.
func (h *Handler) SelectPlayer(c echo.Context) error {
	var req playerRequest
	if err := handlers.Bind(c, &req); err != nil {
		return err
	}
	v := h.controller.View()
	if !hasPlayer(v, req.PlayerID) {
		return h.respond(c, ui.ErrInvalidPlayer, "")
	}
	if err := view.SetPlayerID(c, req.PlayerID); err != nil {
		return err
	}
	return h.respond(c, nil, "Spieler gewechselt.")
}

func (h *Handler) Start(c echo.Context) error {
	return h.respond(c, h.controller.StartGame(), "Spiel gestartet.")
}

func (h *Handler) Skip(c echo.Context) error {
	return h.respond(c, h.controller.Skip(), "")
}

func (h *Handler) Invest(c echo.Context) error {
	var req investRequest
	if err := handlers.Bind(c, &req); err != nil {
		return err
	}
	player := h.activePlayer(c, h.controller.View())
	return h.respond(c, h.controller.Invest(player, req.InvestmentID), "Investition getätigt.")
}

func (h *Handler) Forecast(c echo.Context) error {
	var req forecastRequest
	if err := handlers.Bind(c, &req); err != nil {
		return err
	}
	raw := json.RawMessage(req.Forecast)
	if !json.Valid(raw) {
		// Free text is stored as a JSON string.
		raw, _ = json.Marshal(req.Forecast)
	}
	player := h.activePlayer(c, h.controller.View())
	return h.respond(c, h.controller.Forecast(player, req.Scenario, raw), "Prognose gespeichert.")
}

// Reset discards the game and asks every browser to reload.
func (h *Handler) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.controller.Reset(ctx); err != nil {
		return err
	}
	_ = view.SetPlayerID(c, "")
	if err := pubsub.Publish(ctx, h.publisher, topics.Reset, topics.ResetNotice{Reason: "user"}); err != nil {
		middleware.FromContext(ctx).Error("Failed to publish reset", "error", err)
	}
	if isHTMX(c) {
		c.Response().Header().Set("HX-Refresh", "true")
		return c.NoContent(http.StatusOK)
	}
	view.SetFlashSuccess(c, "Spiel zurückgesetzt.")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) respond(c echo.Context, err error, success string) error {
	msg := ""
	if err != nil {
		msg = ui.Message(err)
		middleware.FromContext(c.Request().Context()).Info("Game action rejected", "path", c.Path(), "error", err)
	}
	if isHTMX(c) {
		return h.renderer.RenderPage(c, http.StatusOK, components.Notice(msg, true))
	}
	if err != nil {
		view.SetFlashError(c, msg)
	} else if success != "" {
		view.SetFlashSuccess(c, success)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// activePlayer is the session's player, or the first player of the roster.
func (h *Handler) activePlayer(c echo.Context, v ui.View) string {
	if id := view.PlayerID(c); hasPlayer(v, id) {
		return id
	}
	if len(v.Roster) > 0 {
		return v.Roster[0].ID
	}
	return ""
}

func hasPlayer(v ui.View, id string) bool {
	if id == "" {
		return false
	}
	for _, p := range v.Roster {
		if p.ID == id {
			return true
		}
	}
	return false
}

func isHTMX(c echo.Context) bool {
	return c.Request().Header.Get("HX-Request") == "true"
}
