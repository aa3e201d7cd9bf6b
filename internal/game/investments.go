package game

import (
	"math"

	"github.com/nfrund/planspiel/internal/catalog"
)

// InvestmentEngine quotes the technology offers for a year. Every call draws
// new costs and benefits.
type InvestmentEngine struct {
	catalog *catalog.Source
	rng     Random
}

// NewInvestmentEngine creates a quoting engine over the catalog's
// technology table.
func NewInvestmentEngine(src *catalog.Source, rng Random) *InvestmentEngine {
	if src == nil {
		src = catalog.NewSource(nil)
	}
	if rng == nil {
		rng = NewRandom(0)
	}
	return &InvestmentEngine{catalog: src, rng: rng}
}

// GetAvailableInvestments returns one offer per technology. Readiness is
// informational and never filters the list.
func (ie *InvestmentEngine) GetAvailableInvestments(year int) []Investment {
	c := ie.catalog.Current()
	offers := make([]Investment, 0, len(c.Technologies))

	for _, tech := range c.Technologies {
		offers = append(offers, Investment{
			ID:          tech.ID,
			Name:        tech.Name,
			Description: tech.Description,
			Cost:        ie.cost(tech.Cost),
			Benefits:    ie.benefits(c.Benefits),
			Risks:       tech.Risks,
			Readiness:   readiness(c.Readiness, tech.BaseReadiness, year),
			Lifetime:    tech.Lifetime,
		})
	}
	return offers
}

func (ie *InvestmentEngine) cost(m catalog.CostModel) float64 {
	// Quotes are whole currency units and never free.
	if !m.IsRange() {
		return math.Max(1, math.Round(m.Flat))
	}
	qty := m.Quantity
	if qty == 0 {
		qty = 1
	}
	unit := m.Min + ie.rng.Float64()*(m.Max-m.Min)
	return math.Max(1, math.Round(unit*qty))
}

func (ie *InvestmentEngine) benefits(r catalog.BenefitRanges) Benefits {
	return Benefits{
		CO2Reduction:          ie.rng.Float64() * r.CO2ReductionMax,
		CostSavings:           ie.rng.Float64() * r.CostSavingsMax,
		ResilienceImprovement: ie.rng.Float64() * r.ResilienceImprovementMax,
	}
}

func readiness(r catalog.Readiness, base float64, year int) float64 {
	v := base + float64(year-r.BaseYear)*r.PerYear
	if r.Max > 0 && v > r.Max {
		return r.Max
	}
	return v
}
