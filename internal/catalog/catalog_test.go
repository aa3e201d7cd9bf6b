package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesGameTables(t *testing.T) {
	c := Default()

	types := make([]string, 0, len(c.Events))
	for _, ec := range c.Events {
		types = append(types, ec.Type)
		assert.Len(t, ec.Events, 3, "category %s", ec.Type)
	}
	assert.Equal(t, []string{"market_shock", "regulatory", "climate", "demographic", "technical"}, types)
	assert.InDelta(t, 0.3, c.Events[0].Probability, 1e-9)
	assert.InDelta(t, 0.4, c.Events[1].Probability, 1e-9)
	assert.InDelta(t, 0.1, c.Events[4].Probability, 1e-9)
	assert.Equal(t, "low", c.Events[4].Impact)

	require.Len(t, c.Technologies, 5)
	assert.Equal(t, "building_renovation", c.Technologies[0].ID)
	assert.Equal(t, "district_heating", c.Technologies[4].ID)

	hp, ok := c.Technology("heat_pump")
	require.True(t, ok)
	assert.False(t, hp.Cost.IsRange())
	assert.Equal(t, 15000.0, hp.Cost.Flat)
	assert.Equal(t, 25000.0, hp.Cost.Variants["ground_water"])
}

func TestDetail_KnownAndUnknownEvents(t *testing.T) {
	c := Default()

	desc, effects := c.Detail("gas_crisis")
	assert.Equal(t, "Geopolitische Spannungen führen zu 200% Anstieg der Gaspreise", desc)
	assert.Equal(t, map[string]float64{"gas_price_multiplier": 3.0, "duration": 2}, effects)

	effects["duration"] = 99
	_, again := c.Detail("gas_crisis")
	assert.Equal(t, 2.0, again["duration"], "effects must be copied")

	desc, effects = c.Detail("cyber_attack")
	assert.Equal(t, "Unbekanntes Ereignis", desc)
	assert.Empty(t, effects)
	assert.NotNil(t, effects)
}

func TestParse_RejectsInvalidTables(t *testing.T) {
	cases := map[string]string{
		"probability": `
events:
  - {type: a, probability: 1.5, impact: low, events: [x]}
technologies:
  - {id: t, name: T, cost: {unit: u, flat: 1}}
`,
		"duplicate type": `
events:
  - {type: a, probability: 0.5, impact: low, events: [x]}
  - {type: a, probability: 0.5, impact: low, events: [y]}
technologies:
  - {id: t, name: T, cost: {unit: u, flat: 1}}
`,
		"cost range": `
events:
  - {type: a, probability: 0.5, impact: low, events: [x]}
technologies:
  - {id: t, name: T, cost: {unit: u, min: 10, max: 5}}
`,
		"unknown field": `
events:
  - {type: a, probability: 0.5, impact: low, events: [x], weight: 3}
technologies:
  - {id: t, name: T, cost: {unit: u, flat: 1}}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestSource_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	src := NewSource(nil)
	before := src.Current()

	require.NoError(t, os.WriteFile(path, []byte("events: [oops"), 0o644))
	assert.Error(t, src.ReloadFile(path))
	assert.Same(t, before, src.Current())

	valid := `
events:
  - {type: only, probability: 1, impact: high, events: [boom]}
technologies:
  - {id: t, name: T, cost: {unit: u, flat: 100}}
`
	require.NoError(t, os.WriteFile(path, []byte(valid), 0o644))
	require.NoError(t, src.ReloadFile(path))
	assert.Equal(t, "only", src.Current().Events[0].Type)
}
