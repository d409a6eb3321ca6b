package server

import (
	"net/http"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/playperu/geoduel/internal/geoduel"
)

// handleResultGeoJSON renders the last resolved round for the map layer:
// the true location, each guess and a line from every guess to the truth.
func handleResultGeoJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := matchFrom(r).Snapshot(r.Context())
		if err != nil {
			writeMatchError(w, err)
			return
		}
		if snap.Result == nil {
			writeError(w, http.StatusNotFound, "no resolved round")
			return
		}

		data, err := resultFeatures(*snap.Result).MarshalJSON()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func resultFeatures(res geoduel.RoundResult) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	actual := point(res.Actual.Coordinate)
	f := geojson.NewFeature(actual)
	f.Properties["kind"] = "actual"
	f.Properties["round"] = res.Round
	f.Properties["panoId"] = res.Actual.PanoID
	fc.Append(f)

	for _, pr := range []geoduel.PlayerResult{res.Player1, res.Player2} {
		if pr.Guess == nil {
			continue
		}
		guess := point(*pr.Guess)

		g := geojson.NewFeature(guess)
		g.Properties["kind"] = "guess"
		g.Properties["role"] = string(pr.Role)
		g.Properties["player"] = string(pr.Kind)
		g.Properties["score"] = pr.Score
		if pr.DistanceKm != nil {
			g.Properties["distanceKm"] = *pr.DistanceKm
		}
		fc.Append(g)

		l := geojson.NewFeature(orb.LineString{guess, actual})
		l.Properties["kind"] = "error_line"
		l.Properties["role"] = string(pr.Role)
		fc.Append(l)
	}
	return fc
}

// point converts to GeoJSON axis order (lon, lat).
func point(c geoduel.Coordinate) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}
