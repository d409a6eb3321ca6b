package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/match"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrTooManyMatches = errors.New("too many active matches")
)

// Registry owns the running match controllers, keyed by match id.
type Registry struct {
	finder    match.Finder
	publisher match.Publisher
	logger    *slog.Logger
	rules     match.Rules
	timing    match.Timing
	max       int

	mu      sync.RWMutex
	matches map[string]*match.Controller
}

func NewRegistry(finder match.Finder, pub match.Publisher, logger *slog.Logger, rules match.Rules, timing match.Timing, max int) *Registry {
	return &Registry{
		finder:    finder,
		publisher: pub,
		logger:    logger,
		rules:     rules,
		timing:    timing,
		max:       max,
		matches:   make(map[string]*match.Controller),
	}
}

// Create starts a new match and its controller loop.
func (r *Registry) Create(mode geoduel.Mode) (*match.Controller, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown mode %q", mode)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.max > 0 && len(r.matches) >= r.max {
		return nil, ErrTooManyMatches
	}

	id := uuid.NewString()
	m := match.New(mode, r.rules, nil)
	c := match.NewController(id, m, r.finder, r.publisher, r.logger, r.timing)
	r.matches[id] = c
	go c.Run()

	r.logger.Info("match created", "match_id", id, "mode", mode)
	return c, nil
}

func (r *Registry) Get(id string) (*match.Controller, error) {
	r.mu.RLock()
	c, ok := r.matches[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrMatchNotFound
	}
	return c, nil
}

// Remove stops the match and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	c, ok := r.matches[id]
	delete(r.matches, id)
	r.mu.Unlock()
	if !ok {
		return ErrMatchNotFound
	}

	c.Stop()
	r.logger.Info("match removed", "match_id", id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// Close stops every match and waits for the loops to exit.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.matches {
		c.Stop()
		<-c.Done()
		delete(r.matches, id)
	}
	return nil
}

// Check reports ErrTooManyMatches once the registry is at capacity.
func (r *Registry) Check(_ context.Context) error {
	if r.max > 0 && r.Len() >= r.max {
		return ErrTooManyMatches
	}
	return nil
}

// watcher reports open streams per match. Broker implements it.
type watcher interface {
	Subscribers(matchID string) int
}

// Reap removes matches with no open stream and no command for longer than
// idle. It returns how many were removed.
func (r *Registry) Reap(idle time.Duration) int {
	w, _ := r.publisher.(watcher)
	cutoff := time.Now().Add(-idle)

	var stale []string
	r.mu.RLock()
	for id, c := range r.matches {
		if w != nil && w.Subscribers(id) > 0 {
			continue
		}
		if c.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	reaped := 0
	for _, id := range stale {
		if err := r.Remove(id); err == nil {
			reaped++
		}
	}
	if reaped > 0 {
		r.logger.Info("reaped idle matches", "count", reaped, "idle", idle)
	}
	return reaped
}

// RunJanitor reaps idle matches every interval until ctx is done.
func (r *Registry) RunJanitor(ctx context.Context, every, idle time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.Reap(idle)
		}
	}
}
