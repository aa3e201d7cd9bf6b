// Package metrics exports game activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nfrund/planspiel/internal/game"
)

// Collector owns the game metrics.
type Collector struct {
	registry *prometheus.Registry

	phases      *prometheus.CounterVec
	rounds      prometheus.Counter
	games       *prometheus.CounterVec
	investments *prometheus.CounterVec
	volume      prometheus.Counter
	events      *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	budget      *prometheus.GaugeVec
	round       prometheus.Gauge
}

// New creates a collector with its own registry, including the Go and
// process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planspiel",
			Name:      "phase_transitions_total",
			Help:      "Phases started, by phase.",
		}, []string{"phase"}),
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planspiel",
			Name:      "rounds_completed_total",
			Help:      "Rounds completed.",
		}),
		games: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planspiel",
			Name:      "games_total",
			Help:      "Games started and ended.",
		}, []string{"event"}),
		investments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planspiel",
			Name:      "investments_total",
			Help:      "Accepted investments, by technology.",
		}, []string{"technology"}),
		volume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planspiel",
			Name:      "investment_volume_euro_total",
			Help:      "Sum of accepted investment costs.",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planspiel",
			Name:      "game_events_total",
			Help:      "Drawn yearly events, by type.",
		}, []string{"type"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planspiel",
			Name:      "investments_rejected_total",
			Help:      "Rejected investments, by reason.",
		}, []string{"reason"}),
		budget: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "planspiel",
			Name:      "player_budget_euro",
			Help:      "Remaining budget per player.",
		}, []string{"player"}),
		round: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "planspiel",
			Name:      "current_round",
			Help:      "Round currently played, 0 before the first game.",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.phases, c.rounds, c.games, c.investments, c.volume,
		c.events, c.rejected, c.budget, c.round,
	)
	return c
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Attach records every notification of events and returns a function that
// stops recording.
func (c *Collector) Attach(events *game.Events) (detach func()) {
	return events.Any.Subscribe(c.observe)
}

func (c *Collector) observe(em game.Emission) {
	switch p := em.Payload.(type) {
	case game.GameState:
		c.games.WithLabelValues("started").Inc()
		c.budget.Reset()
		for _, pl := range p.Players {
			c.budget.WithLabelValues(pl.ID).Set(pl.Budget)
		}
		c.round.Set(float64(p.CurrentRound))
	case game.PhaseStarted:
		c.phases.WithLabelValues(string(p.Phase)).Inc()
		c.round.Set(float64(p.Round))
	case game.RoundCompleted:
		c.rounds.Inc()
	case game.GameEnded:
		c.games.WithLabelValues("ended").Inc()
	case game.EventsReady:
		for _, ev := range p.Events {
			c.events.WithLabelValues(ev.Type).Inc()
		}
	case game.InvestmentMade:
		c.investments.WithLabelValues(p.Investment.ID).Inc()
		c.volume.Add(p.Investment.Cost)
		c.budget.WithLabelValues(p.PlayerID).Set(p.RemainingBudget)
	}
}

// RecordRejected counts an investment the engine refused.
func (c *Collector) RecordRejected(reason string) {
	c.rejected.WithLabelValues(reason).Inc()
}
