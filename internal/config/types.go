package config

import (
	"fmt"
	"strings"
	"time"

	"ticksched/internal/ticker"
)

// Config is the root of the on-disk configuration.
//
// Durations are strings in Go syntax ("10ms", "1s") and validated by
// Validate(); unknown keys are rejected by the strict decoder in Manager.
type Config struct {
	Log    LogConfig    `json:"log"`
	Ticker TickerConfig `json:"ticker"`
	Diag   DiagConfig   `json:"diag"`
}

type LogConfig struct {
	Level   string     `json:"level"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type TickerConfig struct {
	// Resolution is the wall-clock duration of one tick.
	Resolution string `json:"resolution"`
}

type DiagConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
	// RatePerSec limits requests to the report endpoints.
	RatePerSec int  `json:"rate_per_sec"`
	Pprof      bool `json:"pprof"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Console: true},
		Ticker: TickerConfig{Resolution: ticker.DefaultResolution.String()},
		Diag:   DiagConfig{Enabled: false, Address: "127.0.0.1:6060", RatePerSec: 5},
	}
}

// Validate checks the whole tree. It is also used as the Watch() gate so a
// broken edit never reaches subscribers.
func (c *Config) Validate() error {
	if _, err := c.TickResolution(); err != nil {
		return err
	}
	if c.Diag.Enabled && strings.TrimSpace(c.Diag.Address) == "" {
		return fmt.Errorf("diag.address: required when diag.enabled")
	}
	if c.Diag.RatePerSec < 0 {
		return fmt.Errorf("diag.rate_per_sec: must be >= 0")
	}
	return nil
}

// TickResolution parses ticker.resolution, requiring a positive duration.
// An empty value falls back to the driver default.
func (c *Config) TickResolution() (time.Duration, error) {
	raw := strings.TrimSpace(c.Ticker.Resolution)
	if raw == "" {
		return ticker.DefaultResolution, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("ticker.resolution: invalid duration %q: %w", raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ticker.resolution: must be > 0")
	}
	return d, nil
}
