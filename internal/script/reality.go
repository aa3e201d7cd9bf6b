// Package script runs Tengo scripts. Its main use is the reality model: a
// user-supplied script that decides how a simulated year actually went.
package script

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/watch"
)

// BuiltinName selects the embedded example model instead of a file.
const BuiltinName = "builtin"

//go:embed builtin_reality.tengo
var builtinReality string

// ErrNoScript is returned by Assess before any script has been loaded.
var ErrNoScript = errors.New("no reality script loaded")

// realityInputs are the variables a reality script can read.
var realityInputs = []string{"year", "round", "events", "players"}

// RealityScript is a game.RealityModel backed by a Tengo script. The script
// reads year, round, events and players and must set
//
//	result := {costs: ..., co2: ..., resilience: ..., deviations: {playerId: {costs: ..., co2: ..., resilience: ...}}}
//
// The script can be replaced at any time; runs in flight finish with the
// version they started with.
type RealityScript struct {
	engine  *TengoEngine
	current atomic.Pointer[CompiledScript]
	logger  *slog.Logger
}

var _ game.RealityModel = (*RealityScript)(nil)

// NewRealityScript creates a model with no script loaded.
func NewRealityScript(logger *slog.Logger) *RealityScript {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "reality_script")
	return &RealityScript{engine: NewTengoEngine(logger), logger: logger}
}

// Engine exposes the underlying engine, e.g. to tighten its limits.
func (r *RealityScript) Engine() *TengoEngine {
	return r.engine
}

// LoadSource compiles src and makes it the active script. A script that does
// not compile leaves the previous one active.
func (r *RealityScript) LoadSource(name, src string, source ScriptSource) error {
	return r.load(&Script{Name: name, Content: src, Source: source})
}

// LoadFile reads and activates the script at path.
func (r *RealityScript) LoadFile(path string) error {
	name := filepath.Base(path)
	info, err := os.Stat(path)
	if err != nil {
		return NewScriptError(ErrorTypeNotFound, name, "failed to stat script", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return NewScriptError(ErrorTypeNotFound, name, "failed to read script", err)
	}
	return r.load(&Script{
		Name:         name,
		Content:      string(content),
		Source:       SourceExternal,
		LastModified: info.ModTime(),
	})
}

func (r *RealityScript) load(s *Script) error {
	sum := sha256.Sum256([]byte(s.Content))
	s.Checksum = hex.EncodeToString(sum[:])

	cs, err := r.engine.Compile(s, realityInputs...)
	if err != nil {
		r.logger.Warn("Reality script rejected, keeping previous version", "script", s.Name, "error", err)
		return err
	}
	r.current.Store(cs)
	r.logger.Info("Reality script loaded", "script", s.Name, "source", s.Source, "checksum", s.Checksum[:12])
	return nil
}

// LoadBuiltin activates the embedded example model.
func (r *RealityScript) LoadBuiltin() error {
	return r.LoadSource("builtin_reality.tengo", builtinReality, SourceEmbedded)
}

// Watch loads path and reloads it whenever it changes until ctx is done.
func (r *RealityScript) Watch(ctx context.Context, path string) error {
	if err := r.LoadFile(path); err != nil {
		return err
	}
	return watch.File(ctx, path, func(p string) {
		_ = r.LoadFile(p)
	})
}

// Loaded reports whether a script is active.
func (r *RealityScript) Loaded() bool {
	return r.current.Load() != nil
}

// Assess implements game.RealityModel.
func (r *RealityScript) Assess(ctx context.Context, in game.RealityInput) (game.RealityOutcome, error) {
	cs := r.current.Load()
	if cs == nil {
		return game.RealityOutcome{}, ErrNoScript
	}

	out, err := r.engine.Execute(ctx, cs, realityVars(in))
	if err != nil {
		return game.RealityOutcome{}, err
	}
	for _, l := range out.Logs {
		r.logger.Debug("Reality script output", "line", l)
	}

	outcome, err := parseOutcome(out.Result, in.Players)
	if err != nil {
		return game.RealityOutcome{}, NewScriptError(ErrorTypeInvalidResult, cs.Script.Name, "unusable script result", err)
	}
	r.logger.Debug("Reality assessed", "year", in.Year, "costs", outcome.Reality.ActualCosts, "execution_time", out.Metrics.ExecutionTime)
	return outcome, nil
}

func realityVars(in game.RealityInput) map[string]interface{} {
	events := make([]interface{}, 0, len(in.Events))
	for _, ev := range in.Events {
		effects := make(map[string]interface{}, len(ev.Effects))
		for k, v := range ev.Effects {
			effects[k] = v
		}
		events = append(events, map[string]interface{}{
			"type":    ev.Type,
			"event":   ev.Event,
			"impact":  ev.Impact,
			"effects": effects,
		})
	}

	players := make([]interface{}, 0, len(in.Players))
	for _, p := range in.Players {
		investments := make([]interface{}, 0, len(p.Investments))
		for _, inv := range p.Investments {
			investments = append(investments, map[string]interface{}{
				"id":                     inv.ID,
				"cost":                   inv.Cost,
				"year":                   inv.Year,
				"co2_reduction":          inv.Benefits.CO2Reduction,
				"cost_savings":           inv.Benefits.CostSavings,
				"resilience_improvement": inv.Benefits.ResilienceImprovement,
			})
		}
		forecasts := make(map[string]interface{}, len(p.Forecasts))
		for scenario, raw := range p.Forecasts {
			var v interface{}
			if json.Unmarshal(raw, &v) == nil {
				forecasts[scenario] = v
			}
		}
		players = append(players, map[string]interface{}{
			"id":          p.ID,
			"name":        p.Name,
			"role":        p.Role,
			"budget":      p.Budget,
			"invested":    p.Spent(),
			"investments": investments,
			"forecasts":   forecasts,
		})
	}

	return map[string]interface{}{
		"year":    in.Year,
		"round":   in.Round,
		"events":  events,
		"players": players,
	}
}

func parseOutcome(result interface{}, players []game.Player) (game.RealityOutcome, error) {
	m, ok := result.(map[string]interface{})
	if !ok {
		return game.RealityOutcome{}, fmt.Errorf("result must be a map, got %T", result)
	}

	var out game.RealityOutcome
	var err error
	if out.Reality.ActualCosts, err = number(m, "costs"); err != nil {
		return out, err
	}
	if out.Reality.ActualCO2, err = number(m, "co2"); err != nil {
		return out, err
	}
	if out.Reality.ActualResilience, err = number(m, "resilience"); err != nil {
		return out, err
	}

	devs, _ := m["deviations"].(map[string]interface{})
	for _, p := range players {
		d, ok := devs[p.ID].(map[string]interface{})
		if !ok {
			continue
		}
		var dev game.Deviation
		dev.Costs, _ = number(d, "costs")
		dev.CO2, _ = number(d, "co2")
		dev.Resilience, _ = number(d, "resilience")
		out.Deviations = append(out.Deviations, game.PlayerDeviation{PlayerID: p.ID, Deviations: dev})
	}
	return out, nil
}

// number reads a numeric field. Missing fields are zero.
func number(m map[string]interface{}, key string) (float64, error) {
	switch v := m[key].(type) {
	case nil:
		return 0, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}
