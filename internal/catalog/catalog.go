// Package catalog holds the static game tables: event categories with their
// trigger probabilities and the technology archetypes players can invest in.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// EventCategory is one row of the event table.
type EventCategory struct {
	Type        string   `yaml:"type" json:"type"`
	Probability float64  `yaml:"probability" json:"probability"`
	Impact      string   `yaml:"impact" json:"impact"`
	Events      []string `yaml:"events" json:"events"`
}

// EventDetail carries the canned text and effects of a single event.
type EventDetail struct {
	Description string             `yaml:"description" json:"description"`
	Effects     map[string]float64 `yaml:"effects" json:"effects"`
}

// CostModel describes how the quoted cost of a technology is drawn.
// Ranges are per unit and multiplied by Quantity; a Flat cost is quoted as is.
type CostModel struct {
	Unit     string             `yaml:"unit" json:"unit"`
	Min      float64            `yaml:"min,omitempty" json:"min,omitempty"`
	Max      float64            `yaml:"max,omitempty" json:"max,omitempty"`
	Quantity float64            `yaml:"quantity,omitempty" json:"quantity,omitempty"`
	Flat     float64            `yaml:"flat,omitempty" json:"flat,omitempty"`
	Variants map[string]float64 `yaml:"variants,omitempty" json:"variants,omitempty"`
}

// IsRange reports whether the cost is drawn from [Min, Max].
func (c CostModel) IsRange() bool {
	return c.Flat == 0
}

// Technology is one investment archetype.
type Technology struct {
	ID            string    `yaml:"id" json:"id"`
	Name          string    `yaml:"name" json:"name"`
	Description   string    `yaml:"description" json:"description"`
	Risks         string    `yaml:"risks" json:"risks"`
	Lifetime      int       `yaml:"lifetime" json:"lifetime"`
	BaseReadiness float64   `yaml:"base_readiness" json:"baseReadiness"`
	Cost          CostModel `yaml:"cost" json:"cost"`
}

// BenefitRanges are the exclusive upper bounds of the uniform benefit draws.
type BenefitRanges struct {
	CO2ReductionMax          float64 `yaml:"co2_reduction_max"`
	CostSavingsMax           float64 `yaml:"cost_savings_max"`
	ResilienceImprovementMax float64 `yaml:"resilience_improvement_max"`
}

// Readiness controls how technology readiness grows with the simulated year.
type Readiness struct {
	BaseYear int     `yaml:"base_year"`
	PerYear  float64 `yaml:"per_year"`
	Max      float64 `yaml:"max"`
}

// Catalog is the full set of tables. A Catalog is treated as immutable once
// it has been published through a Source.
type Catalog struct {
	Events             []EventCategory        `yaml:"events"`
	EventDetails       map[string]EventDetail `yaml:"event_details"`
	UnknownDescription string                 `yaml:"unknown_event_description"`
	Technologies       []Technology           `yaml:"technologies"`
	Benefits           BenefitRanges          `yaml:"benefits"`
	Readiness          Readiness              `yaml:"readiness"`
}

// ErrInvalidCatalog is returned when a catalog fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Parse decodes and validates a YAML catalog.
func Parse(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data))
}

// Default returns a freshly parsed copy of the embedded tables.
func Default() *Catalog {
	c, err := Parse(bytes.NewReader(defaultYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Validate checks the structural rules the generators rely on.
func (c *Catalog) Validate() error {
	if len(c.Events) == 0 {
		return fmt.Errorf("%w: no event categories", ErrInvalidCatalog)
	}
	seen := make(map[string]bool, len(c.Events))
	for _, ec := range c.Events {
		if ec.Type == "" {
			return fmt.Errorf("%w: event category without type", ErrInvalidCatalog)
		}
		if seen[ec.Type] {
			return fmt.Errorf("%w: duplicate event category %q", ErrInvalidCatalog, ec.Type)
		}
		seen[ec.Type] = true
		if ec.Probability < 0 || ec.Probability > 1 {
			return fmt.Errorf("%w: probability of %q out of range: %v", ErrInvalidCatalog, ec.Type, ec.Probability)
		}
		if len(ec.Events) == 0 {
			return fmt.Errorf("%w: event category %q has no events", ErrInvalidCatalog, ec.Type)
		}
	}

	if len(c.Technologies) == 0 {
		return fmt.Errorf("%w: no technologies", ErrInvalidCatalog)
	}
	ids := make(map[string]bool, len(c.Technologies))
	for _, t := range c.Technologies {
		if t.ID == "" {
			return fmt.Errorf("%w: technology without id", ErrInvalidCatalog)
		}
		if ids[t.ID] {
			return fmt.Errorf("%w: duplicate technology %q", ErrInvalidCatalog, t.ID)
		}
		ids[t.ID] = true
		cm := t.Cost
		if cm.IsRange() {
			if cm.Min <= 0 || cm.Max < cm.Min {
				return fmt.Errorf("%w: technology %q has invalid cost range [%v, %v]", ErrInvalidCatalog, t.ID, cm.Min, cm.Max)
			}
			if cm.Quantity < 0 {
				return fmt.Errorf("%w: technology %q has negative quantity", ErrInvalidCatalog, t.ID)
			}
		} else if cm.Flat < 0 {
			return fmt.Errorf("%w: technology %q has negative flat cost", ErrInvalidCatalog, t.ID)
		}
	}
	return nil
}

// Detail returns the canned description and a copy of the effects for an
// event identifier. Unknown identifiers get the fallback description and no
// effects.
func (c *Catalog) Detail(event string) (string, map[string]float64) {
	d, ok := c.EventDetails[event]
	if !ok {
		return c.UnknownDescription, map[string]float64{}
	}
	effects := make(map[string]float64, len(d.Effects))
	for k, v := range d.Effects {
		effects[k] = v
	}
	desc := d.Description
	if desc == "" {
		desc = c.UnknownDescription
	}
	return desc, effects
}

// Technology looks up an archetype by id.
func (c *Catalog) Technology(id string) (Technology, bool) {
	for _, t := range c.Technologies {
		if t.ID == id {
			return t, true
		}
	}
	return Technology{}, false
}

// Source publishes the current catalog to concurrent readers and allows it to
// be swapped at runtime.
type Source struct {
	current atomic.Pointer[Catalog]
}

// NewSource returns a source serving c, or the default tables when c is nil.
func NewSource(c *Catalog) *Source {
	if c == nil {
		c = Default()
	}
	s := &Source{}
	s.current.Store(c)
	return s
}

// Current returns the catalog in effect.
func (s *Source) Current() *Catalog {
	return s.current.Load()
}

// Replace swaps in a new catalog after validating it.
func (s *Source) Replace(c *Catalog) error {
	if c == nil {
		return fmt.Errorf("%w: nil catalog", ErrInvalidCatalog)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	s.current.Store(c)
	return nil
}

// ReloadFile reads path and swaps it in. On failure the previous catalog stays
// in effect.
func (s *Source) ReloadFile(path string) error {
	c, err := LoadFile(path)
	if err != nil {
		slog.Warn("Catalog reload failed, keeping previous tables", "path", path, "error", err)
		return err
	}
	s.current.Store(c)
	slog.Info("Catalog reloaded", "path", path, "categories", len(c.Events), "technologies", len(c.Technologies))
	return nil
}
