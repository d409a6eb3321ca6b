// Package match implements the round/match state machine and the actor that
// drives it from player commands, timer ticks and location searches.
package match

import (
	"errors"
	"fmt"

	"github.com/playperu/geoduel/internal/geodesy"
	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/panorama"
)

type Phase string

const (
	PhaseLoading       Phase = "loading"
	PhaseAwaitingGuess Phase = "awaiting_guess"
	PhaseSubmitting    Phase = "submitting"
	PhaseRoundResolved Phase = "round_resolved"
	PhaseMatchOver     Phase = "match_over"
	PhaseFailed        Phase = "failed"
)

var (
	ErrWrongPhase        = errors.New("action not allowed in current phase")
	ErrNoGuess           = errors.New("no guess placed")
	ErrAIControlled      = errors.New("player is controlled by the AI")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrStale             = errors.New("superseded by a newer search")
)

// Rules are the tunable constants of a match.
type Rules struct {
	InitialHealth int
	RoundSeconds  int
	DriftDegrees  float64
	Score         func(km float64) int
}

func DefaultRules() Rules {
	return Rules{
		InitialHealth: 10000,
		RoundSeconds:  120,
		DriftDegrees:  2.0,
		Score:         geodesy.Score,
	}
}

// Match holds the state of one match. It is not safe for concurrent use;
// Controller serialises access.
type Match struct {
	mode     geoduel.Mode
	rules    Rules
	opponent Opponent

	phase      Phase
	generation uint64
	round      int

	location *geoduel.Location
	guess    *geoduel.Coordinate
	result   *geoduel.RoundResult
	forced   bool

	player1Health int
	player2Health int
	timeLeft      int
	winner        geoduel.Winner

	failure     string
	unavailable bool
	authError   bool
	tilesLoaded bool
}

// New returns a match in the loading phase. Call BeginSearch to start the
// first round. A nil opponent drifts by rules.DriftDegrees.
func New(mode geoduel.Mode, rules Rules, opponent Opponent) *Match {
	if rules.Score == nil {
		rules.Score = geodesy.Score
	}
	if opponent == nil {
		opponent = NewDriftOpponent(rules.DriftDegrees, nil)
	}
	return &Match{
		mode:          mode,
		rules:         rules,
		opponent:      opponent,
		phase:         PhaseLoading,
		player1Health: rules.InitialHealth,
		player2Health: rules.InitialHealth,
		timeLeft:      rules.RoundSeconds,
	}
}

func (m *Match) Phase() Phase { return m.phase }

func (m *Match) Generation() uint64 { return m.generation }

func (m *Match) Mode() geoduel.Mode { return m.mode }

func (m *Match) Winner() geoduel.Winner { return m.winner }

// BeginSearch enters the loading phase for a new location and returns the
// generation that the search result must carry.
func (m *Match) BeginSearch() uint64 {
	m.generation++
	m.phase = PhaseLoading
	m.location = nil
	m.guess = nil
	m.result = nil
	m.forced = false
	m.failure = ""
	m.tilesLoaded = false
	m.timeLeft = m.rules.RoundSeconds
	return m.generation
}

// ResolveLocation starts a round at loc if gen is still current.
func (m *Match) ResolveLocation(gen uint64, loc geoduel.Location) error {
	if gen != m.generation {
		return ErrStale
	}
	if m.phase != PhaseLoading {
		return ErrWrongPhase
	}
	m.location = &loc
	m.round++
	m.timeLeft = m.rules.RoundSeconds
	m.phase = PhaseAwaitingGuess
	return nil
}

// FailSearch moves the match to the failed phase.
func (m *Match) FailSearch(gen uint64, cause error) error {
	if gen != m.generation {
		return ErrStale
	}
	if m.phase != PhaseLoading {
		return ErrWrongPhase
	}
	m.phase = PhaseFailed
	m.failure = cause.Error()
	m.unavailable = errors.Is(cause, panorama.ErrUnavailable)
	return nil
}

// PlaceGuess records the human guess, replacing any earlier one.
func (m *Match) PlaceGuess(c geoduel.Coordinate) error {
	if m.phase != PhaseAwaitingGuess {
		return ErrWrongPhase
	}
	if m.mode.Kind(geoduel.Player1) != geoduel.KindHuman {
		return ErrAIControlled
	}
	if !c.Valid() {
		return ErrInvalidCoordinate
	}
	m.guess = &c
	return nil
}

// Submit closes the guessing window. Without forced, a human who has not
// guessed yet gets ErrNoGuess and nothing changes.
func (m *Match) Submit(forced bool) error {
	if m.phase != PhaseAwaitingGuess {
		return ErrWrongPhase
	}
	if !forced && m.mode.Kind(geoduel.Player1) == geoduel.KindHuman && m.guess == nil {
		return ErrNoGuess
	}
	m.forced = forced
	m.phase = PhaseSubmitting
	return nil
}

// Tick advances the round timer by one second. It reports whether the tick
// forced the submission; that happens at most once per round.
func (m *Match) Tick() bool {
	if m.phase != PhaseAwaitingGuess {
		return false
	}
	if m.timeLeft > 0 {
		m.timeLeft--
	}
	if m.timeLeft > 0 {
		return false
	}
	return m.Submit(true) == nil
}

// Resolve scores the submitted round and applies damage.
func (m *Match) Resolve(gen uint64) (geoduel.RoundResult, error) {
	if gen != m.generation {
		return geoduel.RoundResult{}, ErrStale
	}
	if m.phase != PhaseSubmitting {
		return geoduel.RoundResult{}, ErrWrongPhase
	}
	if m.location == nil {
		return geoduel.RoundResult{}, fmt.Errorf("resolving round %d: no location", m.round)
	}

	actual := m.location.Coordinate
	p1 := m.grade(geoduel.Player1, m.guessFor(geoduel.Player1, actual), actual)
	p2 := m.grade(geoduel.Player2, m.guessFor(geoduel.Player2, actual), actual)

	winner, damage := settle(p1.Score, p2.Score)
	switch winner {
	case geoduel.WinnerPlayer1:
		m.player2Health = max(0, m.player2Health-damage)
	case geoduel.WinnerPlayer2:
		m.player1Health = max(0, m.player1Health-damage)
	}

	m.winner = decide(m.player1Health, m.player2Health)

	res := geoduel.RoundResult{
		Round:         m.round,
		Mode:          m.mode,
		Winner:        winner,
		Player1:       p1,
		Player2:       p2,
		Actual:        *m.location,
		Damage:        damage,
		Player1Health: m.player1Health,
		Player2Health: m.player2Health,
		Forced:        m.forced,
		MatchOver:     m.winner != geoduel.WinnerNone,
	}
	m.result = &res
	m.guess = nil

	if res.MatchOver {
		m.phase = PhaseMatchOver
	} else {
		m.phase = PhaseRoundResolved
	}
	return res, nil
}

// NextRound starts loading the next location after a resolved round, or
// retries after a failed search.
func (m *Match) NextRound() (uint64, error) {
	if m.phase != PhaseRoundResolved && m.phase != PhaseFailed {
		return 0, ErrWrongPhase
	}
	return m.BeginSearch(), nil
}

// Rematch resets health totals and starts over from any phase.
func (m *Match) Rematch() uint64 {
	m.player1Health = m.rules.InitialHealth
	m.player2Health = m.rules.InitialHealth
	m.winner = geoduel.WinnerNone
	m.round = 0
	m.unavailable = false
	return m.BeginSearch()
}

func (m *Match) SetTilesLoaded() { m.tilesLoaded = true }

func (m *Match) ReportAuthFailure() { m.authError = true }

func (m *Match) guessFor(role geoduel.Role, actual geoduel.Coordinate) *geoduel.Coordinate {
	if m.mode.Kind(role) == geoduel.KindHuman {
		return m.guess
	}
	g := m.opponent.Guess(actual)
	return &g
}

func (m *Match) grade(role geoduel.Role, guess *geoduel.Coordinate, actual geoduel.Coordinate) geoduel.PlayerResult {
	pr := geoduel.PlayerResult{Role: role, Kind: m.mode.Kind(role)}
	if guess == nil {
		return pr
	}
	km := geodesy.DistanceKm(actual, *guess)
	g := *guess
	pr.Guess = &g
	pr.DistanceKm = &km
	pr.Score = max(0, m.rules.Score(km))
	return pr
}

// settle returns the round winner and the damage dealt to the loser.
func settle(score1, score2 int) (geoduel.Winner, int) {
	switch {
	case score1 > score2:
		return geoduel.WinnerPlayer1, score1 - score2
	case score2 > score1:
		return geoduel.WinnerPlayer2, score2 - score1
	default:
		return geoduel.WinnerDraw, 0
	}
}

// decide returns the match winner once a health total is exhausted. Both
// totals at zero is a drawn match.
func decide(health1, health2 int) geoduel.Winner {
	switch {
	case health1 <= 0 && health2 <= 0:
		return geoduel.WinnerDraw
	case health1 <= 0:
		return geoduel.WinnerPlayer2
	case health2 <= 0:
		return geoduel.WinnerPlayer1
	default:
		return geoduel.WinnerNone
	}
}
