// Package districts loads municipal district energy data and condenses it into
// the system state shown during the analysis phase.
package districts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nfrund/planspiel/internal/game"
)

const (
	// GridFactor is the CO₂ intensity in t/MWh of demand not covered locally.
	GridFactor = 0.40
	// CHPFactor is the CO₂ intensity in t/MWh of combined heat and power.
	CHPFactor = 0.20
	// ReferencePrice is the energy price in € per MWh used for annual costs.
	ReferencePrice = 150.0
)

// ErrUnavailable is returned when the district service cannot be reached or
// answers with an error status.
var ErrUnavailable = errors.New("district data unavailable")

// Demand is a district's yearly energy demand in MWh.
type Demand struct {
	Electricity float64 `json:"electricity_mwh"`
	Heating     float64 `json:"heating_mwh"`
	Cooling     float64 `json:"cooling_mwh"`
	Transport   float64 `json:"transport_mwh"`
}

// Total returns the summed demand.
func (d Demand) Total() float64 {
	return d.Electricity + d.Heating + d.Cooling + d.Transport
}

// Generation is a district's yearly local generation in MWh.
type Generation struct {
	SolarPV      float64 `json:"solar_pv_mwh"`
	SolarThermal float64 `json:"solar_thermal_mwh"`
	SmallWind    float64 `json:"small_wind_mwh"`
	Biomass      float64 `json:"biomass_mwh"`
	CHP          float64 `json:"chp_mwh"`
	Geothermal   float64 `json:"geothermal_mwh"`
}

// Renewable returns the generation excluding combined heat and power.
func (g Generation) Renewable() float64 {
	return g.SolarPV + g.SolarThermal + g.SmallWind + g.Biomass + g.Geothermal
}

// Total returns all local generation.
func (g Generation) Total() float64 {
	return g.Renewable() + g.CHP
}

// District is one record of the district service.
type District struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Population        int        `json:"population"`
	AreaKm2           float64    `json:"area_km2"`
	EnergyDemand      Demand     `json:"energy_demand"`
	CurrentGeneration Generation `json:"current_generation"`
}

// Aggregate condenses districts into a single system state.
func Aggregate(ds []District) game.SystemState {
	var demand, renewable, chp, generation float64
	for _, d := range ds {
		demand += d.EnergyDemand.Total()
		renewable += d.CurrentGeneration.Renewable()
		chp += d.CurrentGeneration.CHP
		generation += d.CurrentGeneration.Total()
	}
	if demand == 0 {
		return game.SystemState{}
	}

	uncovered := math.Max(0, demand-generation)
	return game.SystemState{
		TotalDemand:    math.Round(demand),
		RenewableShare: math.Round(renewable / demand * 100),
		CO2Emissions:   math.Round(uncovered*GridFactor + chp*CHPFactor),
		Costs:          math.Round(demand * ReferencePrice),
	}
}

// Client fetches districts from the district service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Districts returns every district known to the service.
func (c *Client) Districts(ctx context.Context) ([]District, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/districts", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build district request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var ds []District
	if err := json.NewDecoder(resp.Body).Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode districts: %w", err)
	}
	return ds, nil
}

// Source lists districts. *Client implements it.
type Source interface {
	Districts(ctx context.Context) ([]District, error)
}

// Provider caches the aggregated system state so the engine can read it
// without waiting on the network. It implements game.SystemStateProvider.
type Provider struct {
	source Source
	logger *slog.Logger

	mu    sync.RWMutex
	state game.SystemState
}

// NewProvider creates a provider over source. Call Refresh to load data.
func NewProvider(source Source, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{source: source, logger: logger.With("component", "districts")}
}

// SystemState returns the last successfully loaded state, or the zero state.
func (p *Provider) SystemState() game.SystemState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Refresh reloads the district data. On failure the previous state is kept
// and the error returned.
func (p *Provider) Refresh(ctx context.Context) error {
	ds, err := p.source.Districts(ctx)
	if err != nil {
		p.logger.Warn("Failed to load district data, keeping previous state", "error", err)
		return err
	}
	st := Aggregate(ds)

	p.mu.Lock()
	p.state = st
	p.mu.Unlock()

	p.logger.Info("District data loaded", "districts", len(ds), "total_demand", st.TotalDemand, "renewable_share", st.RenewableShare)
	return nil
}

// Run refreshes immediately and then every interval until ctx is done.
func (p *Provider) Run(ctx context.Context, interval time.Duration) {
	_ = p.Refresh(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.Refresh(ctx)
		}
	}
}
