// Package components renders the planspiel board with gomponents. Every
// panel has a stable id so that it can be replaced out of band when it
// arrives over the HTML websocket.
package components

import (
	"strings"
	"time"

	"maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	"maragu.dev/gomponents/html"

	"github.com/nfrund/planspiel/internal/format"
	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/ui"
)

// Panel ids.
const (
	IDBoard        = "planspiel-board"
	IDStatus       = "game-status"
	IDControls     = "game-controls"
	IDPhase        = "phase-display"
	IDTimer        = "phase-timer"
	IDDashboard    = "player-dashboard"
	IDInvestments  = "investment-panel"
	IDForecast     = "forecast-panel"
	IDEvents       = "event-display"
	IDResults      = "results-panel"
	IDPlayerSelect = "player-select"
	IDNotice       = "notice"
)

// AllPanels lists every panel of the board in page order.
var AllPanels = []string{IDStatus, IDControls, IDPlayerSelect, IDPhase, IDDashboard, IDForecast, IDInvestments, IDEvents, IDResults}

// Board is the whole game area. activePlayer is the player this browser
// acts as and may be empty.
func Board(v ui.View, activePlayer string, now time.Time) gomponents.Node {
	return html.Div(
		html.ID(IDBoard),
		html.Class("container-fluid mt-3"),
		Status(v, false),
		Controls(v, false),
		PlayerSelect(v, activePlayer, false),
		Phase(v, now, false),
		Dashboard(v, false),
		Forecast(v, false),
		Investments(v, false),
		Events(v, false),
		Results(v, false),
	)
}

// OOB renders the named panels for an out of band swap.
func OOB(v ui.View, now time.Time, ids ...string) gomponents.Node {
	nodes := make(gomponents.Group, 0, len(ids))
	for _, id := range ids {
		switch id {
		case IDStatus:
			nodes = append(nodes, Status(v, true))
		case IDControls:
			nodes = append(nodes, Controls(v, true))
		case IDPlayerSelect:
			nodes = append(nodes, PlayerSelect(v, "", true))
		case IDPhase:
			nodes = append(nodes, Phase(v, now, true))
		case IDDashboard:
			nodes = append(nodes, Dashboard(v, true))
		case IDForecast:
			nodes = append(nodes, Forecast(v, true))
		case IDInvestments:
			nodes = append(nodes, Investments(v, true))
		case IDEvents:
			nodes = append(nodes, Events(v, true))
		case IDResults:
			nodes = append(nodes, Results(v, true))
		}
	}
	return nodes
}

// Notice is the message area for the outcome of this browser's last action.
func Notice(msg string, oob bool) gomponents.Node {
	if msg == "" {
		return panel(IDNotice, oob, "")
	}
	return panel(IDNotice, oob, "alert alert-danger", gomponents.Text(msg))
}

// Success renders a confirmation in the notice panel.
func Success(msg string) gomponents.Node {
	return panel(IDNotice, false, "alert alert-success", gomponents.Text(msg))
}

// panel wraps children in a div with the given id. With oob set the div
// replaces the element with the same id when received over the websocket.
func panel(id string, oob bool, class string, children ...gomponents.Node) gomponents.Node {
	return html.Div(
		html.ID(id),
		gomponents.If(class != "", html.Class(class)),
		gomponents.If(oob, hx.SwapOOB("true")),
		gomponents.Group(children),
	)
}

func hidden(id string, oob bool) gomponents.Node {
	return panel(id, oob, "d-none")
}

// Status shows the status badge and the current round.
func Status(v ui.View, oob bool) gomponents.Node {
	badge := "badge bg-secondary"
	switch v.Status {
	case ui.StatusRunning:
		badge = "badge bg-success"
	case ui.StatusEnded:
		badge = "badge bg-dark"
	}
	return panel(IDStatus, oob, "mb-3",
		html.H2(html.Class("mb-0"), gomponents.Text("🎮 Energiesystem-Planspiel")),
		html.Span(html.Class(badge+" me-2"), gomponents.Text(v.Status)),
		gomponents.If(v.Started,
			html.Span(html.Class("text-muted"), gomponents.Textf("Runde %d von %d · Jahr %d", min(v.Round, v.MaxRounds), v.MaxRounds, v.Year)),
		),
		// The dashboard is hidden before the first game, so the idle summary lives here.
		gomponents.If(!v.Started, html.P(html.Class("text-muted mt-2 mb-0"), gomponents.Text(v.Summary))),
	)
}

// Controls holds the game buttons and, before a game, the player setup.
func Controls(v ui.View, oob bool) gomponents.Node {
	running := v.Started && !v.Ended
	return panel(IDControls, oob, "mb-4",
		html.Div(html.Class("card"),
			html.Div(html.Class("card-header"), html.H5(gomponents.Text("🎯 Spielsteuerung"))),
			html.Div(html.Class("card-body"),
				gomponents.If(!running,
					html.Button(html.Class("btn btn-success me-2"), hx.Post("/game/start"), hx.Swap("none"),
						gomponents.Text("Spiel starten")),
				),
				gomponents.If(running,
					html.Button(html.Class("btn btn-primary me-2"), hx.Post("/game/skip"), hx.Swap("none"),
						gomponents.Text("Nächste Phase")),
				),
				html.Button(html.Class("btn btn-danger"), hx.Post("/game/reset"), hx.Swap("none"),
					hx.Confirm("Spiel wirklich zurücksetzen?"),
					gomponents.Text("Zurücksetzen")),
			),
		),
		gomponents.If(!running, setup(v)),
	)
}

func setup(v ui.View) gomponents.Node {
	return html.Div(html.Class("card mt-3"),
		html.Div(html.Class("card-header"), html.H5(gomponents.Text("👥 Spieler-Setup"))),
		html.Div(html.Class("card-body"),
			gomponents.El("form",
				hx.Post("/players"), hx.Swap("none"),
				html.Div(html.Class("input-group mb-2"),
					html.Input(html.Type("text"), html.Name("name"), html.Class("form-control"),
						html.Placeholder("Spielername eingeben"), html.Required()),
					html.Select(html.Name("role"), html.Class("form-select"),
						gomponents.Map(ui.Roles, func(r ui.Role) gomponents.Node {
							return html.Option(html.Value(r.Key), gomponents.Text(r.Name))
						}),
					),
					html.Button(html.Type("submit"), html.Class("btn btn-outline-primary"), gomponents.Text("+")),
				),
			),
			html.Div(html.ID("players-list"),
				gomponents.Map(v.Roster, func(p game.PlayerInfo) gomponents.Node {
					return html.Div(html.Class("alert alert-info d-flex justify-content-between"),
						gomponents.Attr("data-player-id", p.ID),
						html.Span(html.Strong(gomponents.Text(p.Name)), gomponents.Text(" - "+ui.RoleName(p.Role))),
						html.Button(html.Class("btn-close"), hx.Post("/players/remove"), hx.Swap("none"),
							hx.Vals(`{"player_id":"`+p.ID+`"}`)),
					)
				}),
			),
		),
	)
}

// PlayerSelect lets a browser choose the player it acts as.
func PlayerSelect(v ui.View, activePlayer string, oob bool) gomponents.Node {
	if len(v.Players) == 0 {
		return hidden(IDPlayerSelect, oob)
	}
	return panel(IDPlayerSelect, oob, "mb-3",
		gomponents.El("label", html.Class("me-2"), gomponents.Text("Aktive*r Spieler*in:")),
		html.Select(html.Name("player_id"), html.Class("form-select d-inline w-auto"),
			hx.Post("/session/player"), hx.Trigger("change"), hx.Swap("none"),
			gomponents.Map(v.Players, func(d ui.Dashboard) gomponents.Node {
				return html.Option(html.Value(d.PlayerID), gomponents.If(d.PlayerID == activePlayer, html.Selected()),
					gomponents.Text(d.Name+" ("+d.RoleName+")"))
			}),
		),
	)
}

// Phase shows the phase name, its instruction and the countdown.
func Phase(v ui.View, now time.Time, oob bool) gomponents.Node {
	if !v.Started {
		return hidden(IDPhase, oob)
	}
	return panel(IDPhase, oob, "mb-4",
		html.Div(html.Class("card border-primary"),
			html.Div(html.Class("card-header bg-primary text-white d-flex justify-content-between"),
				html.Div(
					html.H4(html.Class("mb-0"), gomponents.Text(v.PhaseName)),
					html.P(html.Class("mb-0 small"), gomponents.Text(v.PhaseDescription)),
				),
				Timer(v, now),
			),
		),
	)
}

// Timer is the countdown. It polls itself once a second while a phase runs.
func Timer(v ui.View, now time.Time) gomponents.Node {
	running := !v.Deadline.IsZero()
	return html.Div(
		html.ID(IDTimer), html.Class("text-end"),
		gomponents.If(running, gomponents.Group{hx.Get("/game/timer"), hx.Trigger("every 1s"), hx.Swap("outerHTML")}),
		html.Div(html.Class("h3 mb-0"), gomponents.Text(format.Countdown(v.Remaining(now)))),
		html.Div(html.Class("progress mt-2"), html.Style("height: 10px;"),
			html.Div(html.Class("progress-bar"), gomponents.Attr("role", "progressbar"),
				html.Style("width: "+format.Decimal(v.Progress(now)*100, 0)+"%")),
		),
	)
}

// Dashboard shows every player's budget and performance.
func Dashboard(v ui.View, oob bool) gomponents.Node {
	if !v.Started {
		return hidden(IDDashboard, oob)
	}
	return panel(IDDashboard, oob, "mb-4",
		html.Div(html.Class("row"),
			gomponents.Map(v.Players, playerCard),
			html.Div(html.Class("col-md-6"),
				html.Div(html.Class("card"),
					html.Div(html.Class("card-header"), html.H5(gomponents.Textf("📊 Runde %d - Jahr %d", min(v.Round, v.MaxRounds), v.Year))),
					html.Div(html.ID("round-summary"), html.Class("card-body"),
						html.P(gomponents.Text(v.Summary)),
						gomponents.If(v.Notice != "", html.Div(html.Class("alert alert-warning mb-0"), gomponents.Text(v.Notice))),
					),
				),
			),
		),
	)
}

func playerCard(d ui.Dashboard) gomponents.Node {
	return html.Div(html.Class("col-md-6 mb-3"),
		html.Div(html.Class("card"), gomponents.Attr("data-player-id", d.PlayerID),
			html.Div(html.Class("card-header"), html.H5(gomponents.Text("💰 "+d.Name+" · "+d.RoleName))),
			html.Div(html.Class("card-body"),
				html.Div(html.Class("row"),
					metric("col-6", "Verfügbares Budget", format.Euro(d.Budget), "h4 text-success"),
					metric("col-6", "Investiert", format.Euro(d.Invested), "h4 text-info"),
				),
				html.Div(html.Class("row mt-3"),
					metric("col-4", "CO₂-Reduktion", format.Percent(d.CO2Reduction), "h5 text-success"),
					metric("col-4", "Kosteneinsparung", format.Euro(d.CostSavings), "h5 text-primary"),
					metric("col-4", "Resilienz", score(d.Resilience), "h5 text-warning"),
				),
			),
		),
	)
}

func score(n int) string {
	return format.Number(float64(n)) + "/10"
}

func metric(col, label, value, class string) gomponents.Node {
	return html.Div(html.Class(col+" text-center"),
		html.H6(html.Class("small"), gomponents.Text(label)),
		html.Div(html.Class(class), gomponents.Text(value)),
	)
}

// Investments lists the offers of the planning phase.
func Investments(v ui.View, oob bool) gomponents.Node {
	if !v.ShowInvestments {
		return hidden(IDInvestments, oob)
	}
	return panel(IDInvestments, oob, "mb-4",
		html.Div(html.Class("card"),
			html.Div(html.Class("card-header"), html.H5(gomponents.Text("🏗️ Investitionsoptionen"))),
			html.Div(html.ID("investment-options"), html.Class("card-body row"),
				gomponents.Map(v.Offers, offerCard),
			),
		),
	)
}

func offerCard(inv game.Investment) gomponents.Node {
	return html.Div(html.Class("col-md-6 col-lg-4 mb-3"),
		html.Div(html.Class("card h-100"), gomponents.Attr("data-investment-id", inv.ID),
			html.Div(html.Class("card-header"), html.H6(html.Class("mb-0"), gomponents.Text(inv.Name))),
			html.Div(html.Class("card-body"),
				html.P(html.Class("small"), gomponents.Text(inv.Description)),
				html.Div(html.Class("mb-2"), html.Strong(gomponents.Text("Kosten: ")), gomponents.Text(format.Euro(inv.Cost))),
				html.Div(html.Class("mb-2"), html.Strong(gomponents.Text("CO₂-Reduktion: ")),
					gomponents.Text(format.Number(inv.Benefits.CO2Reduction)+" kg/Jahr")),
				html.Div(html.Class("mb-2"), html.Strong(gomponents.Text("Einsparung: ")),
					gomponents.Text(format.Euro(inv.Benefits.CostSavings)+"/Jahr")),
				html.Div(html.Class("mb-3"), html.Small(html.Class("text-warning"), gomponents.Text("Risiko: "+inv.Risks))),
				html.Button(html.Class("btn btn-primary btn-sm w-100"),
					hx.Post("/game/invest"), hx.Swap("none"),
					hx.Vals(`{"investment_id":"`+inv.ID+`"}`),
					gomponents.Text("Investieren")),
			),
		),
	)
}

// Forecast is the forecast form, available in the analysis and planning
// phases.
func Forecast(v ui.View, oob bool) gomponents.Node {
	if !v.Started || v.Ended || (v.Phase != game.PhaseAnalysis && v.Phase != game.PhasePlanning) {
		return hidden(IDForecast, oob)
	}
	return panel(IDForecast, oob, "mb-4",
		html.Div(html.Class("card"),
			html.Div(html.Class("card-header"), html.H5(gomponents.Text("🔮 Prognose"))),
			html.Div(html.Class("card-body"),
				gomponents.El("form", hx.Post("/game/forecast"), hx.Swap("none"),
					html.Select(html.Name("scenario"), html.Class("form-select mb-2"),
						gomponents.Map(v.ForecastScenarios, func(s string) gomponents.Node {
							return html.Option(html.Value(s), gomponents.Text(format.Title(strings.ReplaceAll(s, "_", " "))))
						}),
					),
					html.Textarea(html.Name("forecast"), html.Class("form-control mb-2"), gomponents.Attr("rows", "3"),
						html.Placeholder(`{"costs": 100000, "co2": 500, "resilience": 5}`)),
					html.Button(html.Type("submit"), html.Class("btn btn-outline-primary"), gomponents.Text("Prognose speichern")),
				),
			),
		),
	)
}

// Events lists the events of the year.
func Events(v ui.View, oob bool) gomponents.Node {
	if !v.ShowEvents {
		return hidden(IDEvents, oob)
	}
	var body gomponents.Node
	if len(v.Events) == 0 {
		body = html.P(html.Class("text-muted"), gomponents.Text(ui.MsgNoEvents))
	} else {
		body = gomponents.Map(v.Events, eventCard)
	}
	return panel(IDEvents, oob, "mb-4",
		html.Div(html.Class("card border-warning"),
			html.Div(html.Class("card-header bg-warning text-dark"), html.H5(gomponents.Text("⚡ Ereignisse"))),
			html.Div(html.ID("events-list"), html.Class("card-body"), body),
		),
	)
}

func eventCard(ev game.GameEvent) gomponents.Node {
	return html.Div(html.Class("alert alert-warning mb-3"), gomponents.Attr("data-event-type", ev.Type),
		html.H6(html.Class("alert-heading"), gomponents.Text("⚡ "+EventTitle(ev.Event))),
		html.P(html.Class("mb-1"), gomponents.Text(ev.Description)),
		html.Small(html.Class("text-muted"), gomponents.Text("Auswirkung: "+ev.Impact)),
	)
}

// EventTitle turns an event id such as gas_crisis into GAS CRISIS.
func EventTitle(event string) string {
	return strings.ToUpper(strings.ReplaceAll(event, "_", " "))
}

// Results shows the phase outcomes: system state, reality, evaluation and,
// at the end, the final results.
func Results(v ui.View, oob bool) gomponents.Node {
	if !v.Started || (v.Analysis == nil && v.Reality == nil && v.Evaluation == nil && v.Final == nil) {
		return hidden(IDResults, oob)
	}
	names := map[string]string{}
	for _, d := range v.Players {
		names[d.PlayerID] = d.Name
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	return panel(IDResults, oob, "mb-4",
		// Iff defers building a card until its data is known to be present.
		gomponents.Iff(v.Analysis != nil && v.Final == nil, func() gomponents.Node { return analysis(v.Analysis) }),
		gomponents.Iff(v.Reality != nil, func() gomponents.Node { return reality(v.Reality, name) }),
		gomponents.Iff(v.Evaluation != nil, func() gomponents.Node { return evaluation(v.Evaluation, name) }),
		gomponents.Iff(v.Final != nil, func() gomponents.Node { return final(v.Final, name) }),
	)
}

func analysis(a *game.AnalysisReady) gomponents.Node {
	s := a.SystemState
	return html.Div(html.Class("card mb-3"),
		html.Div(html.Class("card-header"), html.H5(gomponents.Textf("🔎 Systemzustand %d", a.CurrentYear))),
		html.Div(html.Class("card-body row"),
			metric("col-3", "Energiebedarf", format.Number(s.TotalDemand)+" MWh", "h5"),
			metric("col-3", "EE-Anteil", format.Percent(s.RenewableShare), "h5 text-success"),
			metric("col-3", "CO₂-Emissionen", format.Number(s.CO2Emissions)+" t", "h5"),
			metric("col-3", "Kosten", format.Euro(s.Costs), "h5"),
		),
	)
}

func reality(r *game.RealityReady, name func(string) string) gomponents.Node {
	return html.Div(html.Class("card mb-3"),
		html.Div(html.Class("card-header"), html.H5(gomponents.Text("📉 Prognose vs. Realität"))),
		html.Div(html.Class("card-body"),
			html.Div(html.Class("row mb-2"),
				metric("col-4", "Tatsächliche Kosten", format.Euro(r.Reality.ActualCosts), "h5"),
				metric("col-4", "Tatsächliches CO₂", format.Number(r.Reality.ActualCO2)+" t", "h5"),
				metric("col-4", "Tatsächliche Resilienz", format.Decimal(r.Reality.ActualResilience, 1), "h5"),
			),
			html.Table(html.Class("table table-sm"),
				html.THead(html.Tr(html.Th(gomponents.Text("Spieler*in")), html.Th(gomponents.Text("Kosten")),
					html.Th(gomponents.Text("CO₂")), html.Th(gomponents.Text("Resilienz")))),
				html.TBody(gomponents.Map(r.Deviations, func(d game.PlayerDeviation) gomponents.Node {
					return html.Tr(
						html.Td(gomponents.Text(name(d.PlayerID))),
						html.Td(gomponents.Text(format.Percent(d.Deviations.Costs))),
						html.Td(gomponents.Text(format.Percent(d.Deviations.CO2))),
						html.Td(gomponents.Text(format.Percent(d.Deviations.Resilience))),
					)
				})),
			),
		),
	)
}

func evaluation(e *game.EvaluationReady, name func(string) string) gomponents.Node {
	return html.Div(html.Class("card mb-3"),
		html.Div(html.Class("card-header"), html.H5(gomponents.Text("🏆 Auswertung"))),
		html.Div(html.Class("card-body"),
			html.Ol(gomponents.Map(e.Rankings.Overall, func(id string) gomponents.Node {
				return html.Li(gomponents.Text(name(id)))
			})),
			html.Ul(html.Class("small text-muted"), gomponents.Map(e.Lessons, func(l string) gomponents.Node {
				return html.Li(gomponents.Text(l))
			})),
		),
	)
}

func final(f *game.FinalResults, name func(string) string) gomponents.Node {
	winners := make([]string, 0, len(f.Winners))
	for _, id := range f.Winners {
		winners = append(winners, name(id))
	}
	label := "Kein Sieger"
	if len(winners) > 0 {
		label = strings.Join(winners, ", ")
	}
	return html.Div(html.Class("card border-success mb-3"),
		html.Div(html.Class("card-header bg-success text-white"), html.H5(gomponents.Text("🎉 "+ui.MsgFinalResults))),
		html.Div(html.Class("card-body row"),
			metric("col-3", "Gewinner*in", label, "h5"),
			metric("col-3", "Investitionen gesamt", format.Euro(f.TotalInvestments), "h5"),
			metric("col-3", "CO₂-Reduktion", format.Number(f.CO2Reduction)+" kg/Jahr", "h5 text-success"),
			metric("col-3", "Kosteneinsparung", format.Euro(f.CostSavings)+"/Jahr", "h5 text-primary"),
		),
	)
}
