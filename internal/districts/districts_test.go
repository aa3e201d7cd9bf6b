package districts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/planspiel/internal/game"
)

const sample = `[
  {"id": "nord", "name": "Nordstadt", "population": 12000, "area_km2": 4.2,
   "energy_demand": {"electricity_mwh": 400, "heating_mwh": 500, "cooling_mwh": 50, "transport_mwh": 50},
   "current_generation": {"solar_pv_mwh": 100, "solar_thermal_mwh": 20, "small_wind_mwh": 10, "biomass_mwh": 30, "chp_mwh": 100, "geothermal_mwh": 40}},
  {"id": "sued", "name": "Südviertel", "population": 8000, "area_km2": 3.1,
   "energy_demand": {"electricity_mwh": 600, "heating_mwh": 300, "cooling_mwh": 0, "transport_mwh": 100},
   "current_generation": {"solar_pv_mwh": 0, "solar_thermal_mwh": 0, "small_wind_mwh": 0, "biomass_mwh": 0, "chp_mwh": 0, "geothermal_mwh": 0}}
]`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestAggregate(t *testing.T) {
	ds := []District{
		{EnergyDemand: Demand{Electricity: 400, Heating: 500, Cooling: 50, Transport: 50},
			CurrentGeneration: Generation{SolarPV: 100, SolarThermal: 20, SmallWind: 10, Biomass: 30, CHP: 100, Geothermal: 40}},
		{EnergyDemand: Demand{Electricity: 600, Heating: 300, Transport: 100}},
	}

	st := Aggregate(ds)

	// demand 2000, renewable 200, chp 100, uncovered 1700.
	assert.Equal(t, game.SystemState{
		TotalDemand:    2000,
		RenewableShare: 10,
		CO2Emissions:   700,
		Costs:          300_000,
	}, st)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Zero(t, Aggregate(nil))
}

func TestAggregate_OverSupplyHasNoGridEmissions(t *testing.T) {
	st := Aggregate([]District{{
		EnergyDemand:      Demand{Electricity: 100},
		CurrentGeneration: Generation{SolarPV: 150, CHP: 50},
	}})
	assert.Equal(t, 150.0, st.RenewableShare)
	assert.Equal(t, 10.0, st.CO2Emissions)
}

func TestClient_Districts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/districts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, sample)
	}))
	defer srv.Close()

	ds, err := NewClient(srv.URL+"/", srv.Client()).Districts(context.Background())

	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "Nordstadt", ds[0].Name)
	assert.Equal(t, 100.0, ds[0].CurrentGeneration.CHP)
	assert.Equal(t, 1000.0, ds[1].EnergyDemand.Total())
}

func TestClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).Districts(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

type stubSource struct {
	ds  []District
	err error
}

func (s *stubSource) Districts(context.Context) ([]District, error) { return s.ds, s.err }

func TestProvider_KeepsStateOnFailure(t *testing.T) {
	src := &stubSource{ds: []District{{EnergyDemand: Demand{Heating: 100}}}}
	p := NewProvider(src, quiet())
	assert.Zero(t, p.SystemState())

	require.NoError(t, p.Refresh(context.Background()))
	assert.Equal(t, 100.0, p.SystemState().TotalDemand)

	src.err = errors.New("timeout")
	assert.Error(t, p.Refresh(context.Background()))
	assert.Equal(t, 100.0, p.SystemState().TotalDemand)
}

func TestProvider_FeedsAnalysisPhase(t *testing.T) {
	p := NewProvider(&stubSource{ds: []District{{EnergyDemand: Demand{Electricity: 50}}}}, quiet())
	require.NoError(t, p.Refresh(context.Background()))

	var _ game.SystemStateProvider = p
	e := game.New(game.WithSystemState(p), game.WithLogger(quiet()))
	defer e.Close()

	got := make(chan game.SystemState, 1)
	e.Events().AnalysisPhaseReady.Subscribe(func(a game.AnalysisReady) { got <- a.SystemState })
	require.NoError(t, e.StartGame([]game.PlayerInfo{{ID: "p1"}}))

	assert.Equal(t, 50.0, (<-got).TotalDemand)
}
