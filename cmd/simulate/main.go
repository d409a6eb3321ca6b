package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/playperu/geoduel/internal/geodesy"
	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/match"
	"github.com/playperu/geoduel/internal/panorama"
	"github.com/playperu/geoduel/internal/panorama/streetview"
)

var (
	providerName string
	mapsKey      string
	seed         uint64
	health       int
	drift        float64
	maxRounds    int
	attempts     int
)

var rootCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a headless AI-vs-AI GeoDuel match",
	Long: `Plays an AI-vs-AI match to completion and prints every round with the
health totals and the match winner. Uses synthetic panoramas unless
--provider streetview is given.`,
	RunE: runSimulate,
}

func init() {
	_ = godotenv.Load()

	key := os.Getenv("GOOGLE_MAPS_KEY")
	if key == "" {
		key = os.Getenv("VITE_GOOGLE_MAPS_KEY")
	}

	rootCmd.Flags().StringVarP(&providerName, "provider", "p", "synthetic", "Panorama provider (synthetic|streetview)")
	rootCmd.Flags().StringVar(&mapsKey, "key", key, "Google Maps API key for the streetview provider")
	rootCmd.Flags().Uint64VarP(&seed, "seed", "s", 0, "Random seed (0 picks one)")
	rootCmd.Flags().IntVar(&health, "health", 10000, "Initial health per player")
	rootCmd.Flags().Float64Var(&drift, "drift", 2.0, "AI drift in degrees per axis")
	rootCmd.Flags().IntVarP(&maxRounds, "max-rounds", "n", 1000, "Give up after this many rounds (0 for no limit)")
	rootCmd.Flags().IntVar(&attempts, "attempts", panorama.DefaultMaxAttempts, "Location search attempts per round")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var provider panorama.Provider
	switch providerName {
	case "synthetic":
		provider = panorama.Synthetic{}
	case "streetview":
		provider = streetview.New("", mapsKey)
	default:
		return fmt.Errorf("unknown provider %q", providerName)
	}

	if seed == 0 {
		seed = rand.Uint64()
	}
	locations := rand.New(rand.NewPCG(seed, 1))
	guesses := rand.New(rand.NewPCG(seed, 2))

	opts := panorama.DefaultOptions()
	opts.MaxAttempts = attempts
	finder := panorama.NewFinder(provider, locations, opts)

	rules := match.DefaultRules()
	rules.InitialHealth = health
	rules.DriftDegrees = drift
	m := match.New(geoduel.ModeAIVsAI, rules, match.NewDriftOpponent(drift, guesses))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed %d, provider %s, health %d\n\n", seed, providerName, health)

	p1, p2 := m.Mode().Labels()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "round\tactual\t%[1]s dist\t%[1]s score\t%[2]s dist\t%[2]s score\twinner\tdamage\t%[1]s hp\t%[2]s hp\t\n", p1, p2)

	winner, err := match.Autoplay(ctx, m, finder, maxRounds, func(res geoduel.RoundResult) {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%d\t%s\t%d\t%d\t%d\t\n",
			res.Round,
			res.Actual.Coordinate,
			distance(res.Player1), res.Player1.Score,
			distance(res.Player2), res.Player2.Score,
			res.Winner, res.Damage,
			res.Player1Health, res.Player2Health,
		)
	})
	tw.Flush()
	if err != nil {
		return err
	}

	switch winner {
	case geoduel.WinnerPlayer1:
		fmt.Fprintf(out, "\n%s wins the match\n", p1)
	case geoduel.WinnerPlayer2:
		fmt.Fprintf(out, "\n%s wins the match\n", p2)
	default:
		fmt.Fprintln(out, "\nthe match is a draw")
	}
	return nil
}

func distance(pr geoduel.PlayerResult) string {
	if pr.DistanceKm == nil {
		return "-"
	}
	return geodesy.FormatDistance(*pr.DistanceKm)
}
