package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/planspiel/internal/catalog"
)

// scriptedRandom replays fixed values and then repeats the last one.
type scriptedRandom struct {
	floats []float64
	ints   []int
}

func (s *scriptedRandom) Float64() float64 {
	if len(s.floats) == 0 {
		return 0.5
	}
	v := s.floats[0]
	if len(s.floats) > 1 {
		s.floats = s.floats[1:]
	}
	return v
}

func (s *scriptedRandom) IntN(n int) int {
	if len(s.ints) == 0 {
		return 0
	}
	v := s.ints[0]
	if len(s.ints) > 1 {
		s.ints = s.ints[1:]
	}
	return v % n
}

func TestGenerateEvents_AllCategoriesFire(t *testing.T) {
	rng := &scriptedRandom{floats: []float64{0}, ints: []int{0, 1, 2, 0, 1}}
	m := NewEventManager(nil, rng)

	events := m.GenerateEvents(2030)

	require.Len(t, events, 5)
	assert.Equal(t, "market_shock", events[0].Type)
	assert.Equal(t, "gas_crisis", events[0].Event)
	assert.Equal(t, "high", events[0].Impact)
	assert.Equal(t, 2030, events[0].Year)
	assert.Equal(t, map[string]float64{"gas_price_multiplier": 3.0, "duration": 2}, events[0].Effects)

	assert.Equal(t, "regulatory", events[1].Type)
	assert.Equal(t, "subsidy_changes", events[1].Event)
	assert.Equal(t, "Unbekanntes Ereignis", events[1].Description)
	assert.Empty(t, events[1].Effects)

	assert.Equal(t, "storm_damage", events[2].Event)
	assert.Equal(t, "population_growth", events[3].Event)
	assert.Equal(t, "Zuzug erhöht Einwohnerzahl um 20%", events[3].Description)
	assert.Equal(t, "technical", events[4].Type)
	assert.Equal(t, "cyber_attack", events[4].Event)
}

func TestGenerateEvents_RespectsProbabilities(t *testing.T) {
	// 0.25 is below market_shock (0.3) and regulatory (0.4) only.
	rng := &scriptedRandom{floats: []float64{0.25}}
	events := NewEventManager(nil, rng).GenerateEvents(2024)

	require.Len(t, events, 2)
	assert.Equal(t, "market_shock", events[0].Type)
	assert.Equal(t, "regulatory", events[1].Type)

	none := NewEventManager(nil, &scriptedRandom{floats: []float64{0.99}}).GenerateEvents(2024)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestGenerateEvents_UniqueTypesAndBounded(t *testing.T) {
	m := NewEventManager(nil, NewRandom(42))
	for i := 0; i < 500; i++ {
		events := m.GenerateEvents(2024 + i%10)
		assert.LessOrEqual(t, len(events), 5)

		seen := map[string]bool{}
		order := []string{}
		for _, ev := range events {
			assert.False(t, seen[ev.Type], "duplicate type %s", ev.Type)
			seen[ev.Type] = true
			order = append(order, ev.Type)
		}
		assert.IsIncreasing(t, typeIndexes(order))
	}
}

func typeIndexes(types []string) []int {
	pos := map[string]int{}
	for i, ec := range catalog.Default().Events {
		pos[ec.Type] = i
	}
	out := make([]int, len(types))
	for i, tp := range types {
		out[i] = pos[tp]
	}
	return out
}

func TestGetAvailableInvestments_FiveOffersWithPositiveCost(t *testing.T) {
	ie := NewInvestmentEngine(nil, NewRandom(7))

	for year := 2024; year < 2040; year++ {
		offers := ie.GetAvailableInvestments(year)
		require.Len(t, offers, 5)

		ids := make([]string, 0, 5)
		for _, o := range offers {
			ids = append(ids, o.ID)
			assert.Greater(t, o.Cost, 0.0, "%s cost", o.ID)
			assert.Equal(t, float64(int64(o.Cost)), o.Cost, "%s cost is whole units", o.ID)
			assert.GreaterOrEqual(t, o.Benefits.CO2Reduction, 0.0)
			assert.Less(t, o.Benefits.CO2Reduction, 50.0)
			assert.Less(t, o.Benefits.CostSavings, 1000.0)
			assert.Less(t, o.Benefits.ResilienceImprovement, 10.0)
			assert.LessOrEqual(t, o.Readiness, 9.0)
			assert.NotEmpty(t, o.Risks)
		}
		assert.Equal(t, []string{"building_renovation", "solar_pv", "heat_pump", "battery_storage", "district_heating"}, ids)
	}
}

func TestGetAvailableInvestments_CostModels(t *testing.T) {
	low := NewInvestmentEngine(nil, &scriptedRandom{floats: []float64{0}})
	offers := low.GetAvailableInvestments(2024)
	byID := map[string]Investment{}
	for _, o := range offers {
		byID[o.ID] = o
	}

	assert.Equal(t, 5000.0, byID["building_renovation"].Cost, "100 m² at 50 per m²")
	assert.Equal(t, 1000.0, byID["solar_pv"].Cost)
	assert.Equal(t, 15000.0, byID["heat_pump"].Cost)
	assert.Equal(t, 8000.0, byID["battery_storage"].Cost, "10 kWh at 800 per kWh")
	assert.Equal(t, 5000.0, byID["district_heating"].Cost)
	assert.Equal(t, "Speichert überschüssigen Strom für späteren Verbrauch", byID["battery_storage"].Description)
	assert.Equal(t, 15, byID["battery_storage"].Lifetime)
}

func TestReadiness_GrowsWithYearAndCaps(t *testing.T) {
	ie := NewInvestmentEngine(nil, NewRandom(1))

	first := ie.GetAvailableInvestments(2024)
	later := ie.GetAvailableInvestments(2034)

	assert.InDelta(t, 6.0, first[3].Readiness, 1e-9, "battery base readiness")
	assert.InDelta(t, 7.0, later[3].Readiness, 1e-9)
	assert.InDelta(t, 9.0, first[0].Readiness, 1e-9)
	assert.InDelta(t, 9.0, later[0].Readiness, 1e-9, "renovation stays capped")
}

func TestGetAvailableInvestments_RedrawsPerCall(t *testing.T) {
	ie := NewInvestmentEngine(nil, NewRandom(99))
	a := ie.GetAvailableInvestments(2024)
	b := ie.GetAvailableInvestments(2024)
	assert.NotEqual(t, a[1].Cost+a[1].Benefits.CostSavings, b[1].Cost+b[1].Benefits.CostSavings)
}

func TestPhaseTable(t *testing.T) {
	next, ok := PhaseAnalysis.Next()
	assert.True(t, ok)
	assert.Equal(t, PhasePlanning, next)

	_, ok = PhaseEvaluation.Next()
	assert.False(t, ok)

	assert.Equal(t, "Realitätsphase", PhaseReality.DisplayName())
	assert.Equal(t, 420, int(PhasePlanning.Duration().Seconds()))
	assert.Equal(t, 120, int(PhaseEvents.Duration().Seconds()))
	assert.False(t, PhaseEnded.Valid())
	assert.Equal(t, 2, PhaseEvents.Index())
}
