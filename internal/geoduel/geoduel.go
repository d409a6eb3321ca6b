// Package geoduel defines the core domain types shared by the match engine
// and the presentation layer. It has zero external dependencies.
package geoduel

import "fmt"

// Coordinate is a WGS84 point in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within lat [-90,90] and lng [-180,180].
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Lat, c.Lng)
}

// Location is the ground truth of a round: a point snapped to a panorama.
type Location struct {
	Coordinate
	PanoID      string `json:"panoId"`
	Description string `json:"description,omitempty"`
}

type Mode string

const (
	ModeHumanVsAI Mode = "human_vs_ai"
	ModeAIVsAI    Mode = "ai_vs_ai"
)

func (m Mode) Valid() bool {
	return m == ModeHumanVsAI || m == ModeAIVsAI
}

// Labels returns display names for player 1 and player 2.
func (m Mode) Labels() (string, string) {
	if m == ModeAIVsAI {
		return "AI 1", "AI 2"
	}
	return "You", "AI"
}

// Kind of participant occupying a role.
type Kind string

const (
	KindHuman Kind = "human"
	KindAI    Kind = "ai"
)

type Role string

const (
	Player1 Role = "player1"
	Player2 Role = "player2"
)

// Kind returns who plays the role in mode m.
func (m Mode) Kind(r Role) Kind {
	if r == Player1 && m == ModeHumanVsAI {
		return KindHuman
	}
	return KindAI
}

// Winner of a round or a match. The zero value means "not decided".
type Winner string

const (
	WinnerNone    Winner = ""
	WinnerPlayer1 Winner = "player1"
	WinnerPlayer2 Winner = "player2"
	WinnerDraw    Winner = "draw"
)

// PlayerResult is one role's outcome for a round. Guess is nil when the
// player was forced to submit without placing a guess.
type PlayerResult struct {
	Role       Role        `json:"role"`
	Kind       Kind        `json:"kind"`
	Guess      *Coordinate `json:"guess"`
	DistanceKm *float64    `json:"distanceKm"`
	Score      int         `json:"score"`
}

// RoundResult is created once per resolved round and never mutated.
type RoundResult struct {
	Round         int          `json:"round"`
	Mode          Mode         `json:"mode"`
	Winner        Winner       `json:"winner"`
	Player1       PlayerResult `json:"player1"`
	Player2       PlayerResult `json:"player2"`
	Actual        Location     `json:"actual"`
	Damage        int          `json:"damage"`
	Player1Health int          `json:"player1Health"`
	Player2Health int          `json:"player2Health"`
	Forced        bool         `json:"forced"`
	MatchOver     bool         `json:"matchOver"`
}
