package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/geoduel/internal/match"
)

type ctxKey int

const ctxKeyMatch ctxKey = iota

func matchMiddleware(matches *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "matchID")
			if id == "" {
				writeError(w, http.StatusNotFound, "match not found")
				return
			}

			c, err := matches.Get(id)
			if err != nil {
				writeError(w, http.StatusNotFound, "match not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyMatch, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func matchFrom(r *http.Request) *match.Controller {
	return r.Context().Value(ctxKeyMatch).(*match.Controller)
}
