package match

import (
	"math/rand/v2"
	"sync"

	"github.com/playperu/geoduel/internal/geodesy"
	"github.com/playperu/geoduel/internal/geoduel"
)

// Opponent synthesises an AI guess for the true location.
type Opponent interface {
	Guess(actual geoduel.Coordinate) geoduel.Coordinate
}

// DriftOpponent guesses the true location offset by a uniform drift in
// [-Degrees, +Degrees] on each axis. With 2 degrees the mean error is
// roughly 150-300 km depending on latitude.
type DriftOpponent struct {
	Degrees float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDriftOpponent(degrees float64, rng *rand.Rand) *DriftOpponent {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &DriftOpponent{Degrees: degrees, rng: rng}
}

func (o *DriftOpponent) Guess(actual geoduel.Coordinate) geoduel.Coordinate {
	o.mu.Lock()
	dLat := (o.rng.Float64()*2 - 1) * o.Degrees
	dLng := (o.rng.Float64()*2 - 1) * o.Degrees
	o.mu.Unlock()
	return geodesy.Drift(actual, dLat, dLng)
}
