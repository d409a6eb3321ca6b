// Package panorama finds round locations by sampling random points and asking
// a street-level imagery provider for the nearest outdoor panorama.
package panorama

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/playperu/geoduel/internal/geoduel"
)

var (
	ErrNotFound        = errors.New("no panorama within radius")
	ErrAuth            = errors.New("panorama provider rejected credentials")
	ErrUnavailable     = errors.New("panorama provider unavailable")
	ErrSearchExhausted = errors.New("location search exhausted")
)

type Source string

const (
	SourceDefault Source = "default"
	SourceOutdoor Source = "outdoor"
)

type Preference string

const (
	PreferenceNearest Preference = "nearest"
	PreferenceBest    Preference = "best"
)

// Request asks for a panorama around Center.
type Request struct {
	Center       geoduel.Coordinate
	RadiusMeters int
	Source       Source
	Preference   Preference
}

// Provider looks up a single panorama. Implementations return ErrNotFound
// when nothing is in range, ErrAuth when the credential is rejected and
// ErrUnavailable when the provider cannot be used at all.
type Provider interface {
	Lookup(ctx context.Context, req Request) (geoduel.Location, error)
}

const (
	DefaultRadiusMeters = 100_000
	DefaultMaxAttempts  = 50
	maxLatitude         = 85.0
)

type Options struct {
	RadiusMeters   int
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultOptions() Options {
	return Options{
		RadiusMeters:   DefaultRadiusMeters,
		MaxAttempts:    DefaultMaxAttempts,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// Finder samples random points until the provider returns a panorama.
// It is safe for concurrent use.
type Finder struct {
	provider Provider
	opts     Options

	mu  sync.Mutex
	rng *rand.Rand
}

func NewFinder(provider Provider, rng *rand.Rand, opts Options) *Finder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = DefaultRadiusMeters
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	return &Finder{provider: provider, opts: opts, rng: rng}
}

// Find returns the first panorama found near a random point. Misses and
// transient provider errors are retried with exponential backoff up to
// MaxAttempts; notify, if non-nil, sees every failed attempt. ErrUnavailable
// aborts immediately. Exhaustion yields an error wrapping ErrSearchExhausted
// and the last cause.
func (f *Finder) Find(ctx context.Context, notify func(error)) (geoduel.Location, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = f.opts.InitialBackoff
	eb.MaxInterval = f.opts.MaxBackoff
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(f.opts.MaxAttempts-1)), ctx)

	var (
		loc      geoduel.Location
		attempts int
	)
	err := backoff.Retry(func() error {
		attempts++
		found, err := f.provider.Lookup(ctx, f.sample())
		if err == nil {
			loc = found
			return nil
		}
		if notify != nil {
			notify(err)
		}
		if errors.Is(err, ErrUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, b)

	switch {
	case err == nil:
		return loc, nil
	case ctx.Err() != nil:
		return geoduel.Location{}, ctx.Err()
	case errors.Is(err, ErrUnavailable):
		return geoduel.Location{}, err
	default:
		return geoduel.Location{}, fmt.Errorf("%w after %d attempts: %w", ErrSearchExhausted, attempts, err)
	}
}

func (f *Finder) sample() Request {
	f.mu.Lock()
	lat := f.rng.Float64()*2*maxLatitude - maxLatitude
	lng := f.rng.Float64()*360 - 180
	f.mu.Unlock()

	return Request{
		Center:       geoduel.Coordinate{Lat: lat, Lng: lng},
		RadiusMeters: f.opts.RadiusMeters,
		Source:       SourceOutdoor,
		Preference:   PreferenceNearest,
	}
}
