package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfrund/planspiel/internal/format"
	"github.com/nfrund/planspiel/internal/game"
	"github.com/nfrund/planspiel/internal/logging"
	"github.com/nfrund/planspiel/internal/schedule"
	"github.com/nfrund/planspiel/internal/ui"
)

var (
	simRounds  int
	simPlayers int
	simSeed    uint64
	simVerbose bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a game with scripted players and print the rounds",
	Long: `Play a complete game without timers. Every player buys the cheapest
affordable offer in each planning phase. The same seed always produces the
same game.

Examples:
  planspiel simulate
  planspiel simulate --rounds 3 --players 4 --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if simRounds < 1 {
			return errors.New("rounds must be at least 1")
		}
		if simPlayers < 1 || simPlayers > len(ui.Roles) {
			return fmt.Errorf("players must be between 1 and %d", len(ui.Roles))
		}
		logger := slog.New(slog.DiscardHandler)
		if simVerbose {
			logger = logging.NewWithWriter(cmd.ErrOrStderr(), os.Getenv("LOG_FORMAT"), "info")
		}
		return simulate(cmd.OutOrStdout(), simRounds, simPlayers, simSeed, logger)
	},
}

func simulate(w io.Writer, rounds, players int, seed uint64, logger *slog.Logger) error {
	e := game.New(
		game.WithScheduler(schedule.NewManual(time.Date(game.StartYear, 1, 1, 9, 0, 0, 0, time.UTC))),
		game.WithMaxRounds(rounds),
		game.WithSeed(seed),
		game.WithLogger(logger),
	)
	defer e.Close()

	var offers []game.Investment
	e.Events().PlanningPhaseReady.Subscribe(func(p game.PlanningReady) {
		offers = slices.Clone(p.Investments)
		slices.SortStableFunc(offers, func(a, b game.Investment) int {
			switch {
			case a.Cost < b.Cost:
				return -1
			case a.Cost > b.Cost:
				return 1
			}
			return 0
		})
	})
	var final game.FinalResults
	e.Events().GameEnded.Subscribe(func(g game.GameEnded) { final = g.FinalResults })

	roster := make([]game.PlayerInfo, players)
	for i := range roster {
		role := ui.Roles[i]
		roster[i] = game.PlayerInfo{ID: fmt.Sprintf("p%d", i+1), Name: fmt.Sprintf("Spieler %d", i+1), Role: role.Key}
	}
	if err := e.StartGame(roster); err != nil {
		return err
	}

	for !e.State().Ended {
		if e.CurrentPhase() == game.PhasePlanning {
			for _, info := range roster {
				buyCheapest(e, info.ID, offers)
			}
		}
		if err := e.SkipToNextPhase(); err != nil {
			return fmt.Errorf("round %d: %w", e.State().CurrentRound, err)
		}
	}

	st := e.State()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUNDE\tJAHR\tSPIELER\tBUDGET\tINVESTITIONEN\tEREIGNISSE")
	for _, snap := range st.RoundHistory {
		for _, p := range snap.Players {
			fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%d\t%s\n",
				snap.Round, snap.Year, p.Name, format.Euro(p.Budget), len(p.Investments), eventNames(snap.Events))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	winners := make([]string, 0, len(final.Winners))
	for _, id := range final.Winners {
		if p, ok := st.Player(id); ok {
			winners = append(winners, p.Name)
		}
	}
	fmt.Fprintf(w, "\nGewinner: %s\n", strings.Join(winners, ", "))
	fmt.Fprintf(w, "Investitionen gesamt: %s · CO₂-Reduktion: %s · Einsparungen: %s\n",
		format.Euro(final.TotalInvestments), format.Number(final.CO2Reduction), format.Euro(final.CostSavings))
	return nil
}

func buyCheapest(e *game.Engine, playerID string, offers []game.Investment) {
	p, ok := e.Player(playerID)
	if !ok {
		return
	}
	for _, inv := range offers {
		if inv.Cost <= p.Budget {
			_ = e.MakeInvestment(playerID, inv)
			return
		}
	}
}

func eventNames(events []game.GameEvent) string {
	if len(events) == 0 {
		return "-"
	}
	names := make([]string, len(events))
	for i, ev := range events {
		names[i] = ev.Event
	}
	return strings.Join(names, ",")
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().IntVarP(&simRounds, "rounds", "r", game.DefaultMaxRounds, "Number of rounds")
	simulateCmd.Flags().IntVarP(&simPlayers, "players", "n", 3, "Number of scripted players")
	simulateCmd.Flags().Uint64Var(&simSeed, "seed", 1, "Random seed")
	simulateCmd.Flags().BoolVarP(&simVerbose, "verbose", "v", false, "Log engine activity to stderr")
}
