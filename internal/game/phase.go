package game

import "time"

// Phase is a stage of a game round.
type Phase string

const (
	PhaseAnalysis   Phase = "analysis"
	PhasePlanning   Phase = "planning"
	PhaseEvents     Phase = "events"
	PhaseReality    Phase = "reality"
	PhaseEvaluation Phase = "evaluation"

	// PhaseEnded is the terminal state after the last round.
	PhaseEnded Phase = "ended"
)

type phaseInfo struct {
	name        string
	description string
	duration    time.Duration
	next        Phase
}

var phaseTable = map[Phase]phaseInfo{
	PhaseAnalysis: {
		name:        "Analysephase",
		description: "Studieren Sie IST-Zustand und Trends (3-5 Min)",
		duration:    300 * time.Second,
		next:        PhasePlanning,
	},
	PhasePlanning: {
		name:        "Planungsphase",
		description: "Treffen Sie Investitionsentscheidungen (5-7 Min)",
		duration:    420 * time.Second,
		next:        PhaseEvents,
	},
	PhaseEvents: {
		name:        "Ereignisphase",
		description: "Zufallsereignisse treffen ein (1-2 Min)",
		duration:    120 * time.Second,
		next:        PhaseReality,
	},
	PhaseReality: {
		name:        "Realitätsphase",
		description: "Vergleich: Prognose vs. Realität (2-3 Min)",
		duration:    180 * time.Second,
		next:        PhaseEvaluation,
	},
	PhaseEvaluation: {
		name:        "Auswertungsphase",
		description: "Performance bewerten und lernen (3-5 Min)",
		duration:    300 * time.Second,
	},
}

// Phases lists the phases of a round in order.
var Phases = []Phase{PhaseAnalysis, PhasePlanning, PhaseEvents, PhaseReality, PhaseEvaluation}

// Valid reports whether p is one of the five round phases.
func (p Phase) Valid() bool {
	_, ok := phaseTable[p]
	return ok
}

// DisplayName returns the German name shown to players.
func (p Phase) DisplayName() string {
	if p == PhaseEnded {
		return "Spiel beendet"
	}
	return phaseTable[p].name
}

// Description returns the short instruction shown with the phase.
func (p Phase) Description() string {
	return phaseTable[p].description
}

// Duration is the nominal length of the phase.
func (p Phase) Duration() time.Duration {
	return phaseTable[p].duration
}

// Next returns the successor within a round. The second result is false for
// the evaluation phase, whose completion completes the round.
func (p Phase) Next() (Phase, bool) {
	info, ok := phaseTable[p]
	if !ok || info.next == "" {
		return "", false
	}
	return info.next, true
}

// Index returns the position of p within a round, or -1.
func (p Phase) Index() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

func (p Phase) String() string {
	return string(p)
}
