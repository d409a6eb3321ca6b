package match

import "github.com/playperu/geoduel/internal/geoduel"

// Diagnostics mirrors the debug panel of the client.
type Diagnostics struct {
	APILoaded    bool `json:"apiLoaded"`
	TilesLoaded  bool `json:"tilesLoaded"`
	IsSubmitting bool `json:"isSubmitting"`
	AuthError    bool `json:"authError"`
}

// Snapshot is the read model handed to the presentation layer. The actual
// coordinate is only revealed through Result once the round is resolved.
type Snapshot struct {
	MatchID       string               `json:"matchId"`
	Phase         Phase                `json:"phase"`
	Mode          geoduel.Mode         `json:"mode"`
	Round         int                  `json:"round"`
	Player1Health int                  `json:"player1Health"`
	Player2Health int                  `json:"player2Health"`
	MaxHealth     int                  `json:"maxHealth"`
	TimeLeft      int                  `json:"timeLeft"`
	MatchWinner   geoduel.Winner       `json:"matchWinner,omitempty"`
	PanoID        string               `json:"panoId,omitempty"`
	Guess         *geoduel.Coordinate  `json:"guess"`
	Result        *geoduel.RoundResult `json:"result"`
	Failure       string               `json:"failure,omitempty"`
	Diagnostics   Diagnostics          `json:"diagnostics"`
}

func (m *Match) Snapshot() Snapshot {
	s := Snapshot{
		Phase:         m.phase,
		Mode:          m.mode,
		Round:         m.round,
		Player1Health: m.player1Health,
		Player2Health: m.player2Health,
		MaxHealth:     m.rules.InitialHealth,
		TimeLeft:      m.timeLeft,
		MatchWinner:   m.winner,
		Result:        m.result,
		Failure:       m.failure,
		Diagnostics: Diagnostics{
			APILoaded:    !m.unavailable,
			TilesLoaded:  m.tilesLoaded,
			IsSubmitting: m.phase == PhaseSubmitting,
			AuthError:    m.authError,
		},
	}
	if m.location != nil {
		s.PanoID = m.location.PanoID
	}
	if m.guess != nil {
		g := *m.guess
		s.Guess = &g
	}
	return s
}
