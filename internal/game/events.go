package game

import (
	"github.com/nfrund/planspiel/internal/catalog"
)

// EventManager draws the yearly events.
type EventManager struct {
	catalog *catalog.Source
	rng     Random
}

// NewEventManager creates a generator over the catalog's event table.
func NewEventManager(src *catalog.Source, rng Random) *EventManager {
	if src == nil {
		src = catalog.NewSource(nil)
	}
	if rng == nil {
		rng = NewRandom(0)
	}
	return &EventManager{catalog: src, rng: rng}
}

// GenerateEvents samples every category independently against its
// probability. Each category fires at most once and the result follows the
// table order.
func (m *EventManager) GenerateEvents(year int) []GameEvent {
	c := m.catalog.Current()
	events := []GameEvent{}

	for _, category := range c.Events {
		if m.rng.Float64() >= category.Probability {
			continue
		}
		id := category.Events[m.rng.IntN(len(category.Events))]
		desc, effects := c.Detail(id)
		events = append(events, GameEvent{
			Type:        category.Type,
			Event:       id,
			Impact:      category.Impact,
			Year:        year,
			Description: desc,
			Effects:     effects,
		})
	}
	return events
}
