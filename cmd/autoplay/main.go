// Command autoplay plays batches of 2048 games with one bot algorithm and
// prints a JSON summary, or serves the bot over HTTP with -http.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"os/signal"
	"time"

	"game2048/internal/bot"
	"game2048/internal/config"
	"game2048/internal/ports/httpapi"

	"github.com/pkg/profile"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"
)

type options struct {
	algorithm   string
	games       int
	parallel    int
	seed        int64
	depth       int
	iterations  int
	exploration float64
	rollout     int
	maxMoves    int
	configPath  string
	cpuProfile  string
	httpAddr    string
	logLevel    string
	set         map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.algorithm, "algorithm", "", "bot algorithm: "+fmt.Sprint(bot.Algorithms()))
	fs.IntVar(&o.games, "games", 10, "number of games to play")
	fs.IntVar(&o.parallel, "parallel", 4, "games played at once")
	fs.Int64Var(&o.seed, "seed", 0, "base seed; 0 picks a random one")
	fs.IntVar(&o.depth, "depth", bot.DefaultExpectimaxDepth, "expectimax depth")
	fs.IntVar(&o.iterations, "iterations", bot.DefaultMCTSIterations, "mcts iterations per move")
	fs.Float64Var(&o.exploration, "exploration", bot.DefaultMCTSExploration, "mcts exploration constant")
	fs.IntVar(&o.rollout, "rollout", bot.DefaultMCTSRolloutDepth, "mcts rollout depth")
	fs.IntVar(&o.maxMoves, "max-moves", 0, "stop each game after this many moves; 0 means no limit")
	fs.StringVar(&o.configPath, "config", "", "game config JSON file")
	fs.StringVar(&o.cpuProfile, "cpuprofile", "", "write a CPU profile into this directory")
	fs.StringVar(&o.httpAddr, "http", "", "serve the HTTP API on this address instead of playing")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	if o.games < 0 || o.parallel < 0 || o.maxMoves < 0 {
		return o, errors.New("-games, -parallel and -max-moves must not be negative")
	}
	return o, nil
}

// searchConfig starts from the configured defaults and applies the flags
// that were given explicitly.
func (o options) searchConfig() (bot.SearchConfig, error) {
	cfg := config.SearchDefaults()
	if o.algorithm != "" {
		algo, err := bot.ParseAlgorithm(o.algorithm)
		if err != nil {
			return cfg, err
		}
		cfg.Algorithm = algo
	}
	if o.set["depth"] {
		cfg.ExpectimaxDepth = o.depth
	}
	if o.set["iterations"] {
		cfg.MCTSIterations = o.iterations
	}
	if o.set["exploration"] {
		cfg.MCTSExploration = o.exploration
	}
	if o.set["rollout"] {
		cfg.MCTSRolloutDepth = o.rollout
	}
	return cfg, cfg.Validate()
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger(), nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "autoplay:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	o, err := parseFlags(flag.NewFlagSet("autoplay", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	log, err := newLogger(o.logLevel)
	if err != nil {
		return err
	}
	if o.configPath != "" {
		if err := config.LoadGameConfig(o.configPath); err != nil {
			return err
		}
	}
	if o.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(o.cpuProfile), profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if o.httpAddr != "" {
		return serve(ctx, o.httpAddr, log)
	}

	cfg, err := o.searchConfig()
	if err != nil {
		return err
	}
	seed := o.seed
	if seed == 0 {
		seed = int64(frand.Uint64n(math.MaxInt64))
	}

	log.Info().Str("algorithm", string(cfg.Algorithm)).Int("games", o.games).Int64("seed", seed).Msg("starting batch")
	summary, err := Run(ctx, Batch{Config: cfg, Games: o.games, Parallel: o.parallel, Seed: seed, MaxMoves: o.maxMoves}, log)
	if err != nil {
		return err
	}
	log.Info().Float64("mean", summary.Mean).Int("best", summary.Best).Int("wins", summary.Wins).Msg("batch finished")

	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e.Encode(summary)
}

func serve(ctx context.Context, addr string, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpapi.NewServer(log).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("serving")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
