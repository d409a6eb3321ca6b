package match

import "github.com/playperu/geoduel/internal/geoduel"

type reply struct {
	snap Snapshot
	err  error
}

// Player commands. A nil reply channel means fire-and-forget.

type placeGuess struct {
	coord geoduel.Coordinate
	reply chan<- reply
}

type submit struct{ reply chan<- reply }

type nextRound struct{ reply chan<- reply }

type rematch struct{ reply chan<- reply }

type tilesLoaded struct{ reply chan<- reply }

type authFailure struct{ reply chan<- reply }

type getSnapshot struct{ reply chan<- reply }

// Internal events posted back to the loop by background work.

type locationFound struct {
	gen uint64
	loc geoduel.Location
	err error
}

type thinkingDone struct{ gen uint64 }
