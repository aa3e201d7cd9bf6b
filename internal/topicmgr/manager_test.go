package topicmgr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterAndList(t *testing.T) {
	m := NewManager()

	started := DefineModule(TopicConfig{Name: "planspiel.phaseStarted", Module: "planspiel", Description: "phase began"})
	ended := DefineModule(TopicConfig{Name: "planspiel.gameEnded", Module: "planspiel", Description: "game over"})
	broadcast := DefineFramework(TopicConfig{Name: "ws.html.broadcast", Module: "ignored", Description: "fan-out"})

	m.MustRegister(started, ended, broadcast)

	assert.Equal(t, 3, m.Count())
	assert.Equal(t, "planspiel.phaseStarted", started.Pattern(), "pattern defaults to the name")
	assert.Empty(t, broadcast.Module())

	names := func(ts []Topic) []string {
		out := []string{}
		for _, t := range ts {
			out = append(out, t.Name())
		}
		return out
	}
	assert.Equal(t, []string{"planspiel.gameEnded", "planspiel.phaseStarted", "ws.html.broadcast"}, names(m.List()))
	assert.Equal(t, []string{"planspiel.gameEnded", "planspiel.phaseStarted"}, names(m.ListByModule("planspiel")))
	assert.Equal(t, []string{"ws.html.broadcast"}, names(m.ListByScope(ScopeFramework)))
	assert.Equal(t, []string{"ws.html.broadcast"}, names(m.ListTopicsByPrefix("ws.")))
	assert.Equal(t, []string{"planspiel"}, m.ListModules())

	got, ok := m.Get("planspiel.gameEnded")
	require.True(t, ok)
	assert.Equal(t, "game over", got.Description())
}

func TestManager_RejectsDuplicates(t *testing.T) {
	m := NewManager()
	topic := DefineModule(TopicConfig{Name: "planspiel.forecastMade", Module: "planspiel", Description: "d"})
	require.NoError(t, m.Register(topic))

	err := m.Register(topic)
	var te *TopicError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ErrorDuplicateRegistration, te.Type)
}

func TestManager_Validation(t *testing.T) {
	cases := map[string]Topic{
		"nil":              nil,
		"empty name":       DefineModule(TopicConfig{Module: "planspiel", Description: "d"}),
		"bad characters":   DefineModule(TopicConfig{Name: "planspiel.phase-started", Module: "planspiel", Description: "d"}),
		"no description":   DefineModule(TopicConfig{Name: "planspiel.x", Module: "planspiel"}),
		"foreign prefix":   DefineModule(TopicConfig{Name: "other.x", Module: "planspiel", Description: "d"}),
		"framework prefix": DefineFramework(TopicConfig{Name: "planspiel.x", Description: "d"}),
	}
	for name, topic := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewManager().Register(topic)
			var te *TopicError
			require.True(t, errors.As(err, &te), "got %v", err)
			assert.Equal(t, ErrorValidationFailed, te.Type)
		})
	}
}

func TestMustRegister_Panics(t *testing.T) {
	assert.Panics(t, func() {
		NewManager().MustRegister(DefineModule(TopicConfig{Name: "Bad"}))
	})
}
