package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/playperu/geoduel/internal/geoduel"
)

var ErrRoundLimit = errors.New("round limit reached")

// Autoplay drives an AI-vs-AI match synchronously to completion, calling
// onRound after each resolved round. A maxRounds of 0 means no limit.
func Autoplay(ctx context.Context, m *Match, finder Finder, maxRounds int, onRound func(geoduel.RoundResult)) (geoduel.Winner, error) {
	if m.Mode() != geoduel.ModeAIVsAI {
		return geoduel.WinnerNone, fmt.Errorf("autoplay needs %s, got %s", geoduel.ModeAIVsAI, m.Mode())
	}

	gen := m.BeginSearch()
	for {
		if maxRounds > 0 && m.round >= maxRounds {
			return geoduel.WinnerNone, ErrRoundLimit
		}

		loc, err := finder.Find(ctx, nil)
		if err != nil {
			_ = m.FailSearch(gen, err)
			return geoduel.WinnerNone, fmt.Errorf("round %d: %w", m.round+1, err)
		}
		if err := m.ResolveLocation(gen, loc); err != nil {
			return geoduel.WinnerNone, err
		}
		if err := m.Submit(false); err != nil {
			return geoduel.WinnerNone, err
		}
		res, err := m.Resolve(gen)
		if err != nil {
			return geoduel.WinnerNone, err
		}
		if onRound != nil {
			onRound(res)
		}
		if res.MatchOver {
			return m.Winner(), nil
		}
		if gen, err = m.NextRound(); err != nil {
			return geoduel.WinnerNone, err
		}
	}
}
