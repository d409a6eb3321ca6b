package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, matches *Registry, broker *Broker, opts Options) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoDuel API", "/openapi.json", "/docs"))
	r.Get("/api/config", handleClientConfig(opts.Client))

	r.Post("/api/matches", handleCreateMatch(matches))

	// Match routes, {matchID} resolved by matchMiddleware.
	r.Route("/api/matches/{matchID}", func(r chi.Router) {
		r.Use(matchMiddleware(matches))
		r.Get("/", handleGetMatch())
		r.Delete("/", handleDeleteMatch(matches))
		r.Post("/guess", handleGuess())
		r.Post("/submit", handleSubmit())
		r.Post("/next", handleNextRound())
		r.Post("/rematch", handleRematch())
		r.Post("/tiles-loaded", handleTilesLoaded())
		r.Post("/auth-failure", handleAuthFailure())
		r.Get("/result.geojson", handleResultGeoJSON())
		r.Get("/events", handleEvents(broker))
		r.Get("/ws", handleWS(logger, broker))
	})

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}
