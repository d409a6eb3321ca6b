package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/geoduel/internal/match"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type matchPath struct {
	MatchID string `path:"matchID"`
}

type guessInput struct {
	matchPath
	GuessRequest
}

type healthStatus struct {
	Status string `json:"status"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoDuel API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for GeoDuel, a head-to-head geography guessing game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Reports whether the panorama provider is reachable.")
	getHealthz.AddRespStructure(map[string]healthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]healthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/config
	getConfig, _ := r.NewOperationContext(http.MethodGet, "/api/config")
	getConfig.SetSummary("Client configuration")
	getConfig.SetDescription("Maps key and match rules needed by the SPA.")
	getConfig.AddRespStructure(ClientConfig{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getConfig)

	// POST /api/matches
	createMatch, _ := r.NewOperationContext(http.MethodPost, "/api/matches")
	createMatch.SetSummary("Create match")
	createMatch.SetDescription("Starts a match in human_vs_ai (default) or ai_vs_ai mode. The first location search begins immediately.")
	createMatch.AddReqStructure(CreateMatchRequest{})
	createMatch.AddRespStructure(CreateMatchResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(createMatch)

	// GET /api/matches/{matchID}
	getMatch, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{matchID}")
	getMatch.SetSummary("Get match state")
	getMatch.AddReqStructure(matchPath{})
	getMatch.AddRespStructure(match.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMatch)

	// DELETE /api/matches/{matchID}
	deleteMatch, _ := r.NewOperationContext(http.MethodDelete, "/api/matches/{matchID}")
	deleteMatch.SetSummary("Exit match")
	deleteMatch.SetDescription("Stops the match and cancels any search in flight.")
	deleteMatch.AddReqStructure(matchPath{})
	deleteMatch.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteMatch)

	// POST /api/matches/{matchID}/guess
	postGuess, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{matchID}/guess")
	postGuess.SetSummary("Place guess")
	postGuess.SetDescription("Places or moves the human guess marker. Only allowed while awaiting a guess in human_vs_ai mode.")
	postGuess.AddReqStructure(guessInput{})
	postGuess.AddRespStructure(match.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGuess.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuess)

	actions := []struct {
		path, summary, description string
	}{
		{"/submit", "Submit guess", "Locks in the guess. Without a guess this is a no-op that returns the unchanged state."},
		{"/next", "Next round", "Searches a new location after a resolved round or a failed search."},
		{"/rematch", "Rematch", "Resets both health totals and starts over."},
		{"/tiles-loaded", "Tiles loaded", "Renderer signal: panorama tiles have loaded."},
		{"/auth-failure", "Auth failure", "Renderer signal: the maps SDK rejected the key."},
	}
	for _, a := range actions {
		op, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{matchID}"+a.path)
		op.SetSummary(a.summary)
		op.SetDescription(a.description)
		op.AddReqStructure(matchPath{})
		op.AddRespStructure(match.Snapshot{}, openapi.WithHTTPStatus(http.StatusOK))
		op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
		op.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
		_ = r.AddOperation(op)
	}

	// GET /api/matches/{matchID}/result.geojson
	getGeoJSON, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{matchID}/result.geojson")
	getGeoJSON.SetSummary("Round result as GeoJSON")
	getGeoJSON.SetDescription("FeatureCollection with the true location, both guesses and the error lines of the last round.")
	getGeoJSON.AddReqStructure(matchPath{})
	getGeoJSON.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("application/geo+json"))
	getGeoJSON.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGeoJSON)

	// GET /api/matches/{matchID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{matchID}/events")
	getEvents.SetSummary("SSE state stream")
	getEvents.SetDescription("Server-Sent Events stream; every state change is sent as a `state` event.")
	getEvents.AddReqStructure(matchPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/matches/{matchID}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{matchID}/ws")
	getWS.SetSummary("WebSocket match stream")
	getWS.SetDescription("Pushes state messages and accepts guess, submit, next, rematch and tiles_loaded commands.")
	getWS.AddReqStructure(matchPath{})
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
