package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/geoduel/internal/config"
	"github.com/playperu/geoduel/internal/handler/health"
	"github.com/playperu/geoduel/internal/match"
	"github.com/playperu/geoduel/internal/panorama"
	"github.com/playperu/geoduel/internal/panorama/streetview"
	"github.com/playperu/geoduel/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Panorama provider ---
	checks := map[string]health.Checker{}
	var provider panorama.Provider
	switch cfg.PanoramaProvider {
	case config.ProviderSynthetic:
		provider = panorama.Synthetic{}
	default:
		if cfg.GoogleMapsKey() == "" {
			logger.Warn("GOOGLE_MAPS_KEY is not set, every location search will fail")
		}
		sv := streetview.New(cfg.StreetViewBaseURL, cfg.GoogleMapsKey())
		provider = sv
		checks["panorama"] = sv
	}
	logger.Info("panorama provider selected", "provider", cfg.PanoramaProvider)

	opts := panorama.DefaultOptions()
	opts.RadiusMeters = cfg.SearchRadiusMeters
	opts.MaxAttempts = cfg.SearchMaxAttempts
	finder := panorama.NewFinder(provider, nil, opts)

	// --- Matches ---
	rules := match.DefaultRules()
	rules.InitialHealth = cfg.InitialHealth
	rules.RoundSeconds = cfg.RoundSeconds
	rules.DriftDegrees = cfg.AIDriftDegrees

	timing := match.DefaultTiming()
	timing.Thinking = cfg.ThinkingDelay

	broker := server.NewBroker()
	matches := server.NewRegistry(finder, broker, logger, rules, timing, cfg.MaxMatches)
	defer matches.Close()
	checks["matches"] = matches

	// --- HTTP Server ---
	srv := server.New(server.Options{
		Addr:        cfg.HTTPAddr,
		SPADir:      cfg.SPADir,
		CORSOrigins: cfg.CORSOrigins,
		Client: server.ClientConfig{
			MapsKey:       cfg.GoogleMapsKey(),
			RoundSeconds:  cfg.RoundSeconds,
			InitialHealth: cfg.InitialHealth,
		},
	}, logger, matches, broker, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		every := min(max(cfg.MatchIdleTimeout/2, time.Second), time.Minute)
		logger.Info("starting match janitor", "idle_timeout", cfg.MatchIdleTimeout)
		return matches.RunJanitor(gctx, every, cfg.MatchIdleTimeout)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
