package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/match"
)

type CreateMatchRequest struct {
	Mode geoduel.Mode `json:"mode"`
}

type CreateMatchResponse struct {
	ID    string         `json:"id"`
	State match.Snapshot `json:"state"`
}

type GuessRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func handleCreateMatch(matches *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateMatchRequest
		if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Mode == "" {
			req.Mode = geoduel.ModeHumanVsAI
		}
		if !req.Mode.Valid() {
			writeError(w, http.StatusBadRequest, "mode must be human_vs_ai or ai_vs_ai")
			return
		}

		c, err := matches.Create(req.Mode)
		if errors.Is(err, ErrTooManyMatches) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		snap, err := c.Snapshot(r.Context())
		if err != nil {
			writeMatchError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateMatchResponse{ID: c.ID, State: snap})
	}
}

func handleGetMatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := matchFrom(r).Snapshot(r.Context())
		writeMatchResult(w, snap, err)
	}
}

func handleDeleteMatch(matches *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := matches.Remove(matchFrom(r).ID); err != nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGuess() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GuessRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Lat == nil || req.Lng == nil {
			writeError(w, http.StatusBadRequest, "lat and lng are required")
			return
		}

		snap, err := matchFrom(r).PlaceGuess(r.Context(), geoduel.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
		writeMatchResult(w, snap, err)
	}
}

func handleSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := matchFrom(r).Submit(r.Context())
		writeMatchResult(w, snap, err)
	}
}

func handleNextRound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := matchFrom(r).NextRound(r.Context())
		writeMatchResult(w, snap, err)
	}
}

func handleRematch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := matchFrom(r).Rematch(r.Context())
		writeMatchResult(w, snap, err)
	}
}

func handleTilesLoaded() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := matchFrom(r).TilesLoaded(r.Context())
		writeMatchResult(w, snap, err)
	}
}

func handleAuthFailure() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := matchFrom(r).ReportAuthFailure(r.Context())
		writeMatchResult(w, snap, err)
	}
}

// writeMatchResult answers with the snapshot. A submit without a guess is a
// no-op and still returns 200 with the unchanged state.
func writeMatchResult(w http.ResponseWriter, snap match.Snapshot, err error) {
	if err != nil && !errors.Is(err, match.ErrNoGuess) {
		writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, match.ErrInvalidCoordinate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, match.ErrWrongPhase), errors.Is(err, match.ErrAIControlled):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, match.ErrStopped):
		writeError(w, http.StatusNotFound, "match not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
