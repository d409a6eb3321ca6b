package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:"../web/dist"`

	MapsKey           string `env:"GOOGLE_MAPS_KEY"`
	ViteMapsKey       string `env:"VITE_GOOGLE_MAPS_KEY"`
	PanoramaProvider  string `env:"PANORAMA_PROVIDER" envDefault:"streetview"`
	StreetViewBaseURL string `env:"STREETVIEW_BASE_URL" envDefault:"https://maps.googleapis.com/maps/api/streetview/metadata"`

	SearchRadiusMeters int `env:"SEARCH_RADIUS_METERS" envDefault:"100000"`
	SearchMaxAttempts  int `env:"SEARCH_MAX_ATTEMPTS" envDefault:"50"`

	RoundSeconds   int           `env:"ROUND_SECONDS" envDefault:"120"`
	InitialHealth  int           `env:"INITIAL_HEALTH" envDefault:"10000"`
	ThinkingDelay  time.Duration `env:"THINKING_DELAY" envDefault:"800ms"`
	AIDriftDegrees float64       `env:"AI_DRIFT_DEGREES" envDefault:"2.0"`

	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	MaxMatches  int      `env:"MAX_MATCHES" envDefault:"1000"`

	MatchIdleTimeout time.Duration `env:"MATCH_IDLE_TIMEOUT" envDefault:"30m"`
}

const (
	ProviderStreetView = "streetview"
	ProviderSynthetic  = "synthetic"
)

// Load reads an optional .env file and then the environment. Variables that
// are already set win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GoogleMapsKey prefers GOOGLE_MAPS_KEY over the Vite-prefixed name the
// frontend build uses.
func (c *Config) GoogleMapsKey() string {
	if c.MapsKey != "" {
		return c.MapsKey
	}
	return c.ViteMapsKey
}

func (c *Config) validate() error {
	switch c.PanoramaProvider {
	case ProviderStreetView, ProviderSynthetic:
	default:
		return fmt.Errorf("unknown PANORAMA_PROVIDER %q", c.PanoramaProvider)
	}
	if c.RoundSeconds <= 0 {
		return fmt.Errorf("ROUND_SECONDS must be positive, got %d", c.RoundSeconds)
	}
	if c.InitialHealth <= 0 {
		return fmt.Errorf("INITIAL_HEALTH must be positive, got %d", c.InitialHealth)
	}
	if c.SearchMaxAttempts <= 0 {
		return fmt.Errorf("SEARCH_MAX_ATTEMPTS must be positive, got %d", c.SearchMaxAttempts)
	}
	if c.MaxMatches <= 0 {
		return fmt.Errorf("MAX_MATCHES must be positive, got %d", c.MaxMatches)
	}
	if c.MatchIdleTimeout <= 0 {
		return fmt.Errorf("MATCH_IDLE_TIMEOUT must be positive, got %s", c.MatchIdleTimeout)
	}
	return nil
}
