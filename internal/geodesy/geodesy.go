// Package geodesy computes great-circle distances and the distance-to-score
// curve used to grade guesses.
package geodesy

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"

	"github.com/playperu/geoduel/internal/geoduel"
)

const (
	// EarthRadiusKm is the mean Earth radius.
	EarthRadiusKm = 6371.0088

	// MaxScore is awarded for a guess within PerfectRadiusKm of the target.
	MaxScore = 5000

	// PerfectRadiusKm keeps the maximum score reachable for near-exact guesses.
	PerfectRadiusKm = 0.025

	// WorldScaleKm is half the Earth's circumference; it sets how fast the
	// score decays on a world map.
	WorldScaleKm = 20015.086796
)

// DistanceKm returns the haversine distance between a and b.
func DistanceKm(a, b geoduel.Coordinate) float64 {
	return latLng(a).Distance(latLng(b)).Radians() * EarthRadiusKm
}

// Score maps a distance to an integer in [0, MaxScore]. It is non-increasing
// in km: 5000 * exp(-10 * km / WorldScaleKm), rounded.
func Score(km float64) int {
	if math.IsNaN(km) || math.IsInf(km, 1) {
		return 0
	}
	if km <= PerfectRadiusKm {
		return MaxScore
	}

	score := int(math.Round(MaxScore * math.Exp(-10*km/WorldScaleKm)))
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Drift offsets c by the given degrees and normalises the result: latitude is
// clamped to the poles and longitude wrapped into [-180, 180].
func Drift(c geoduel.Coordinate, dLat, dLng float64) geoduel.Coordinate {
	ll := s2.LatLngFromDegrees(c.Lat+dLat, c.Lng+dLng).Normalized()
	return geoduel.Coordinate{
		Lat: clamp(ll.Lat.Degrees(), -90, 90),
		Lng: clamp(ll.Lng.Degrees(), -180, 180),
	}
}

// FormatDistance renders km for humans: meters below 1 km.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0fm", km*1000)
	}
	return fmt.Sprintf("%.2fkm", km)
}

func latLng(c geoduel.Coordinate) s2.LatLng {
	return s2.LatLngFromDegrees(c.Lat, c.Lng)
}

// clamp absorbs the rounding left by the degree/radian round trip.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
