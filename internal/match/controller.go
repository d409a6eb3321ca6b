package match

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playperu/geoduel/internal/geoduel"
	"github.com/playperu/geoduel/internal/panorama"
)

var ErrStopped = errors.New("match stopped")

// Finder locates the panorama for a new round.
type Finder interface {
	Find(ctx context.Context, notify func(error)) (geoduel.Location, error)
}

// Publisher receives a snapshot after every state change.
type Publisher interface {
	Publish(matchID string, snap Snapshot)
}

type Timing struct {
	Tick     time.Duration
	Thinking time.Duration
}

func DefaultTiming() Timing {
	return Timing{Tick: time.Second, Thinking: 800 * time.Millisecond}
}

// Controller owns a Match and applies every transition on its own goroutine,
// so a timer-forced submit and a player submit can never interleave.
type Controller struct {
	ID string

	inbox     chan any
	match     *Match
	finder    Finder
	publisher Publisher
	logger    *slog.Logger
	timing    Timing

	ticker       *time.Ticker
	cancelSearch context.CancelFunc

	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	lastSeen atomic.Int64
}

func NewController(id string, m *Match, finder Finder, pub Publisher, logger *slog.Logger, timing Timing) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		ID:        id,
		inbox:     make(chan any, 64),
		match:     m,
		finder:    finder,
		publisher: pub,
		logger:    logger.With("match_id", id),
		timing:    timing,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	c.Touch()
	return c
}

// Touch records client activity. Every command counts; streams call it when
// they close.
func (c *Controller) Touch() { c.lastSeen.Store(time.Now().UnixNano()) }

// LastSeen is the time of the latest client activity.
func (c *Controller) LastSeen() time.Time { return time.Unix(0, c.lastSeen.Load()) }

// Stop ends the loop and cancels any search in flight.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.quit) })
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) Run() {
	defer close(c.done)

	c.ticker = time.NewTicker(c.timing.Tick)
	defer c.ticker.Stop()

	c.search(c.match.BeginSearch())
	c.publish()

	for {
		select {
		case <-c.quit:
			if c.cancelSearch != nil {
				c.cancelSearch()
			}
			return
		case cmd := <-c.inbox:
			c.handle(cmd)
		case <-c.ticker.C:
			c.tick()
		}
	}
}

func (c *Controller) PlaceGuess(ctx context.Context, coord geoduel.Coordinate) (Snapshot, error) {
	return c.call(ctx, func(r chan<- reply) any { return placeGuess{coord: coord, reply: r} })
}

func (c *Controller) Submit(ctx context.Context) (Snapshot, error) {
	return c.call(ctx, func(r chan<- reply) any { return submit{reply: r} })
}

func (c *Controller) NextRound(ctx context.Context) (Snapshot, error) {
	return c.call(ctx, func(r chan<- reply) any { return nextRound{reply: r} })
}

func (c *Controller) Rematch(ctx context.Context) (Snapshot, error) {
	return c.call(ctx, func(r chan<- reply) any { return rematch{reply: r} })
}

func (c *Controller) TilesLoaded(ctx context.Context) (Snapshot, error) {
	return c.call(ctx, func(r chan<- reply) any { return tilesLoaded{reply: r} })
}

func (c *Controller) ReportAuthFailure(ctx context.Context) (Snapshot, error) {
	return c.call(ctx, func(r chan<- reply) any { return authFailure{reply: r} })
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	return c.call(ctx, func(r chan<- reply) any { return getSnapshot{reply: r} })
}

func (c *Controller) call(ctx context.Context, build func(chan<- reply) any) (Snapshot, error) {
	c.Touch()
	ch := make(chan reply, 1)
	select {
	case c.inbox <- build(ch):
	case <-c.quit:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case r := <-ch:
		return r.snap, r.err
	case <-c.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// post delivers an internal event unless the loop has stopped.
func (c *Controller) post(msg any) {
	select {
	case c.inbox <- msg:
	case <-c.quit:
	}
}

func (c *Controller) handle(cmd any) {
	switch cmd := cmd.(type) {
	case placeGuess:
		c.respond(cmd.reply, c.match.PlaceGuess(cmd.coord))
	case submit:
		err := c.match.Submit(false)
		if err == nil {
			c.scheduleResolve()
		}
		c.respond(cmd.reply, err)
	case nextRound:
		gen, err := c.match.NextRound()
		if err == nil {
			c.search(gen)
		}
		c.respond(cmd.reply, err)
	case rematch:
		c.search(c.match.Rematch())
		c.logger.Info("rematch started")
		c.respond(cmd.reply, nil)
	case tilesLoaded:
		c.match.SetTilesLoaded()
		c.respond(cmd.reply, nil)
	case authFailure:
		if !c.match.Snapshot().Diagnostics.AuthError {
			c.logger.Warn("panorama provider authentication failed")
		}
		c.match.ReportAuthFailure()
		c.respond(cmd.reply, nil)
	case getSnapshot:
		if cmd.reply != nil {
			cmd.reply <- reply{snap: c.snapshot()}
		}
	case locationFound:
		c.locationFound(cmd)
	case thinkingDone:
		res, err := c.match.Resolve(cmd.gen)
		if err != nil {
			c.logger.Debug("discarding resolve", "error", err)
			return
		}
		c.logger.Info("round resolved",
			"round", res.Round,
			"winner", res.Winner,
			"damage", res.Damage,
			"player1_score", res.Player1.Score,
			"player2_score", res.Player2.Score,
			"forced", res.Forced,
		)
		if res.MatchOver {
			c.logger.Info("match over", "winner", c.match.Winner())
		}
		c.publish()
	}
}

func (c *Controller) locationFound(ev locationFound) {
	if ev.err != nil {
		if err := c.match.FailSearch(ev.gen, ev.err); err != nil {
			return
		}
		c.logger.Error("location search failed", "error", ev.err)
		c.publish()
		return
	}

	if err := c.match.ResolveLocation(ev.gen, ev.loc); err != nil {
		c.logger.Debug("discarding location", "pano_id", ev.loc.PanoID, "error", err)
		return
	}
	// Align the countdown with the start of the round.
	c.ticker.Reset(c.timing.Tick)
	c.logger.Info("round started", "pano_id", ev.loc.PanoID)
	c.publish()
}

func (c *Controller) tick() {
	if c.match.Phase() != PhaseAwaitingGuess {
		return
	}
	if c.match.Tick() {
		c.logger.Info("time expired, forcing submission")
		c.scheduleResolve()
	}
	c.publish()
}

func (c *Controller) respond(ch chan<- reply, err error) {
	if err == nil {
		c.publish()
	}
	if ch != nil {
		ch <- reply{snap: c.snapshot(), err: err}
	}
}

func (c *Controller) search(gen uint64) {
	if c.cancelSearch != nil {
		c.cancelSearch()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelSearch = cancel

	go func() {
		loc, err := c.finder.Find(ctx, func(err error) {
			if errors.Is(err, panorama.ErrAuth) {
				c.post(authFailure{})
			}
		})
		c.post(locationFound{gen: gen, loc: loc, err: err})
	}()
}

func (c *Controller) scheduleResolve() {
	gen := c.match.Generation()
	time.AfterFunc(c.timing.Thinking, func() {
		c.post(thinkingDone{gen: gen})
	})
}

func (c *Controller) snapshot() Snapshot {
	s := c.match.Snapshot()
	s.MatchID = c.ID
	return s
}

func (c *Controller) publish() {
	if c.publisher != nil {
		c.publisher.Publish(c.ID, c.snapshot())
	}
}
