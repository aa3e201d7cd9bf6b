package game

import (
	"slices"
)

// evaluate scores each player from the benefit estimates of everything they
// have invested in so far. Social counts the distinct technologies in the
// portfolio.
func evaluate(players []Player) []PlayerEvaluation {
	out := make([]PlayerEvaluation, 0, len(players))
	for _, p := range players {
		var s Scores
		techs := make(map[string]struct{})
		for _, inv := range p.Investments {
			s.Economic += inv.Benefits.CostSavings
			s.Ecological += inv.Benefits.CO2Reduction
			s.Resilience += inv.Benefits.ResilienceImprovement
			techs[inv.ID] = struct{}{}
		}
		s.Social = float64(len(techs))
		out = append(out, PlayerEvaluation{PlayerID: p.ID, Scores: s})
	}
	return out
}

// rank orders players by each dimension, best first; ties keep join order.
// Overall sorts by the sum of the per-dimension positions, where equal
// scores share a position.
func rank(evals []PlayerEvaluation) Rankings {
	by := func(score func(Scores) float64) []string {
		sorted := slices.Clone(evals)
		slices.SortStableFunc(sorted, func(a, b PlayerEvaluation) int {
			sa, sb := score(a.Scores), score(b.Scores)
			switch {
			case sa > sb:
				return -1
			case sa < sb:
				return 1
			}
			return 0
		})
		ids := make([]string, len(sorted))
		for i, e := range sorted {
			ids[i] = e.PlayerID
		}
		return ids
	}

	r := Rankings{
		Economic:   by(func(s Scores) float64 { return s.Economic }),
		Ecological: by(func(s Scores) float64 { return s.Ecological }),
		Resilience: by(func(s Scores) float64 { return s.Resilience }),
	}

	positions := positionSums(evals)
	overall := make([]string, len(evals))
	for i, e := range evals {
		overall[i] = e.PlayerID
	}
	slices.SortStableFunc(overall, func(a, b string) int {
		return positions[a] - positions[b]
	})
	r.Overall = overall
	return r
}

// winners returns every player sharing the best overall position. A game
// in which nobody invested has no winners.
func winners(players []Player) []string {
	invested := false
	for _, p := range players {
		if len(p.Investments) > 0 {
			invested = true
			break
		}
	}
	if !invested {
		return []string{}
	}

	evals := evaluate(players)
	r := rank(evals)
	positions := positionSums(evals)
	best := positions[r.Overall[0]]
	out := []string{}
	for _, id := range r.Overall {
		if positions[id] == best {
			out = append(out, id)
		}
	}
	return out
}

func positionSums(evals []PlayerEvaluation) map[string]int {
	dims := []func(Scores) float64{
		func(s Scores) float64 { return s.Economic },
		func(s Scores) float64 { return s.Ecological },
		func(s Scores) float64 { return s.Resilience },
	}
	positions := make(map[string]int, len(evals))
	for _, score := range dims {
		for _, e := range evals {
			above := 0
			for _, other := range evals {
				if score(other.Scores) > score(e.Scores) {
					above++
				}
			}
			positions[e.PlayerID] += above
		}
	}
	return positions
}

func finalResults(players []Player) FinalResults {
	fr := FinalResults{Winners: winners(players)}
	for _, p := range players {
		for _, inv := range p.Investments {
			fr.TotalInvestments += inv.Cost
			fr.CO2Reduction += inv.Benefits.CO2Reduction
			fr.CostSavings += inv.Benefits.CostSavings
		}
	}
	return fr
}
