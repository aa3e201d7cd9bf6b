package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/planspiel/cmd/planspiel/internal/topics"
	"github.com/nfrund/planspiel/internal/game"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	listOutputFormat, listModuleFilter, listScopeFilter = "table", "", ""
	simRounds, simPlayers, simSeed, simVerbose = game.DefaultMaxRounds, 3, 1, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "planspiel v"+version+"\n", out)
}

func TestTopicsList_ModuleJSON(t *testing.T) {
	out, err := run(t, "topics", "list", "--module", "planspiel", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Topics []topics.TopicDisplay `json:"topics"`
		Count  int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, len(doc.Topics), doc.Count)

	names := make([]string, 0, len(doc.Topics))
	for _, td := range doc.Topics {
		assert.Equal(t, "planspiel", td.Module)
		assert.Equal(t, "module", td.Scope)
		names = append(names, td.Name)
	}
	assert.Contains(t, names, "planspiel.gameStarted")
	assert.Contains(t, names, "planspiel.forecastMade")
	assert.Contains(t, names, "planspiel.reset")
}

func TestTopicsList_FrameworkTable(t *testing.T) {
	out, err := run(t, "topics", "list", "-s", "framework")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "NAME"))
	assert.Contains(t, out, "ws.client.ready")
	assert.NotContains(t, out, "planspiel.gameStarted")
}

func TestTopicsList_Errors(t *testing.T) {
	_, err := run(t, "topics", "list", "--scope", "galaxy")
	assert.ErrorContains(t, err, "invalid scope")

	_, err = run(t, "topics", "list", "--format", "yaml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestTopicsList_NoMatch(t *testing.T) {
	out, err := run(t, "topics", "list", "--module", "nothing")
	require.NoError(t, err)
	assert.Equal(t, "No topics found matching: module 'nothing'\n", out)
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "--rounds", "2", "--players", "2", "--seed", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.True(t, strings.HasPrefix(lines[0], "RUNDE"))
	assert.Contains(t, out, "Spieler 1")
	assert.Contains(t, out, "Spieler 2")
	assert.Contains(t, out, "Gewinner: ")

	// Two rounds with two players each.
	rows := 0
	for _, l := range lines[1:] {
		if strings.HasPrefix(l, "1 ") || strings.HasPrefix(l, "2 ") {
			rows++
		}
	}
	assert.Equal(t, 4, rows)

	again, err := run(t, "simulate", "--rounds", "2", "--players", "2", "--seed", "3")
	require.NoError(t, err)
	assert.Equal(t, out, again, "a seed replays the same game")
}

func TestSimulate_RejectsBadFlags(t *testing.T) {
	_, err := run(t, "simulate", "--players", "0")
	assert.ErrorContains(t, err, "players must be between")

	_, err = run(t, "simulate", "--rounds", "0")
	assert.ErrorContains(t, err, "rounds must be at least 1")
}
