package panorama

import (
	"context"
	"fmt"

	"github.com/playperu/geoduel/internal/geoduel"
)

// Synthetic snaps every request to its own center. It stands in for a real
// provider during development and headless simulation.
type Synthetic struct{}

func (Synthetic) Lookup(ctx context.Context, req Request) (geoduel.Location, error) {
	if err := ctx.Err(); err != nil {
		return geoduel.Location{}, err
	}
	return geoduel.Location{
		Coordinate:  req.Center,
		PanoID:      fmt.Sprintf("synthetic_%+.5f_%+.5f", req.Center.Lat, req.Center.Lng),
		Description: "synthetic panorama",
	}, nil
}
