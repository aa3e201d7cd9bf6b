package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func investor(id string, benefits ...Benefits) Player {
	p := newPlayer(PlayerInfo{ID: id})
	for i, b := range benefits {
		p.Investments = append(p.Investments, InvestmentRecord{
			Investment: Investment{ID: []string{"solar_pv", "heat_pump", "solar_pv"}[i%3], Cost: 1000, Benefits: b},
		})
	}
	return p
}

func TestEvaluate_SumsBenefits(t *testing.T) {
	players := []Player{
		investor("a", Benefits{CO2Reduction: 10, CostSavings: 100, ResilienceImprovement: 1}, Benefits{CO2Reduction: 5, CostSavings: 50, ResilienceImprovement: 2}, Benefits{CO2Reduction: 1}),
		investor("b"),
	}

	evals := evaluate(players)

	assert.Equal(t, []PlayerEvaluation{
		{PlayerID: "a", Scores: Scores{Economic: 150, Ecological: 16, Resilience: 3, Social: 2}},
		{PlayerID: "b"},
	}, evals)
}

func TestRank_PerDimensionAndOverall(t *testing.T) {
	evals := []PlayerEvaluation{
		{PlayerID: "a", Scores: Scores{Economic: 10, Ecological: 1, Resilience: 5}},
		{PlayerID: "b", Scores: Scores{Economic: 20, Ecological: 2, Resilience: 1}},
		{PlayerID: "c", Scores: Scores{Economic: 5, Ecological: 3, Resilience: 9}},
	}

	r := rank(evals)

	assert.Equal(t, []string{"b", "a", "c"}, r.Economic)
	assert.Equal(t, []string{"c", "b", "a"}, r.Ecological)
	assert.Equal(t, []string{"c", "a", "b"}, r.Resilience)
	// Position sums: a=1+2+1=4, b=0+1+2=3, c=2+0+0=2.
	assert.Equal(t, []string{"c", "b", "a"}, r.Overall)
}

func TestRank_TiesKeepJoinOrder(t *testing.T) {
	r := rank([]PlayerEvaluation{{PlayerID: "x"}, {PlayerID: "y"}})
	assert.Equal(t, []string{"x", "y"}, r.Overall)
	assert.Equal(t, []string{"x", "y"}, r.Economic)
}

func TestWinners(t *testing.T) {
	assert.Equal(t, []string{}, winners([]Player{investor("a"), investor("b")}))

	same := Benefits{CO2Reduction: 3, CostSavings: 3, ResilienceImprovement: 3}
	tied := []Player{investor("a", same), investor("b", same), investor("c")}
	assert.Equal(t, []string{"a", "b"}, winners(tied))

	clear := []Player{investor("a", same), investor("b", Benefits{CO2Reduction: 9, CostSavings: 9, ResilienceImprovement: 9})}
	assert.Equal(t, []string{"b"}, winners(clear))
}

func TestFinalResults_Totals(t *testing.T) {
	players := []Player{
		investor("a", Benefits{CO2Reduction: 2, CostSavings: 20}),
		investor("b", Benefits{CO2Reduction: 3, CostSavings: 30}, Benefits{CO2Reduction: 1}),
	}

	fr := finalResults(players)

	assert.Equal(t, 3000.0, fr.TotalInvestments)
	assert.Equal(t, 6.0, fr.CO2Reduction)
	assert.Equal(t, 50.0, fr.CostSavings)
	assert.Equal(t, []string{"b"}, fr.Winners)
}
