package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/railsim/core/factory"
)

const (
	DefaultMargin          = 15
	DefaultLegMargin       = 20
	DefaultDwellTicks      = 5
	DefaultCleanupInterval = 500
	DefaultLatencyWindow   = 256
)

// Config defines scheduling parameters loaded from configuration.
type Config struct {
	// Margin is the headway applied when booking full routes.
	Margin int `json:"margin" yaml:"margin"`
	// LegMargin is the headway applied by ScheduleLeg.
	LegMargin int `json:"leg_margin" yaml:"leg_margin"`
	// DwellTicks is added to the cursor after every reachable leg.
	DwellTicks int `json:"dwell_ticks" yaml:"dwell_ticks"`
	// CleanupInterval runs the reservation sweep every N ticks; 0 disables it.
	CleanupInterval int `json:"cleanup_interval" yaml:"cleanup_interval"`
	// CleanupGrace keeps intervals that ended less than this many ticks ago.
	CleanupGrace int `json:"cleanup_grace" yaml:"cleanup_grace"`
	// LatencyWindow is the number of latency samples kept for statistics.
	LatencyWindow int `json:"latency_window" yaml:"latency_window"`
	// Strategies overrides the slot finder used for an algorithm.
	Strategies []factory.ModuleConfig `json:"strategies" yaml:"strategies"`
}

// DefaultConfig returns the reference scheduling parameters.
func DefaultConfig() Config {
	return Config{
		Margin:          DefaultMargin,
		LegMargin:       DefaultLegMargin,
		DwellTicks:      DefaultDwellTicks,
		CleanupInterval: DefaultCleanupInterval,
		LatencyWindow:   DefaultLatencyWindow,
	}
}

// Validate checks the numeric parameters.
func (c Config) Validate() error {
	switch {
	case c.Margin < 0:
		return fmt.Errorf("margin must not be negative")
	case c.LegMargin < 0:
		return fmt.Errorf("leg_margin must not be negative")
	case c.DwellTicks < 0:
		return fmt.Errorf("dwell_ticks must not be negative")
	case c.CleanupInterval < 0:
		return fmt.Errorf("cleanup_interval must not be negative")
	case c.CleanupGrace < 0:
		return fmt.Errorf("cleanup_grace must not be negative")
	}
	return nil
}

// LoadConfig loads a Config from a JSON or YAML file. Fields absent from the
// file keep their defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "yaml", "yml", "json":
	default:
		return Config{}, fmt.Errorf("unsupported config format: .%s", ext)
	}
	return DecodeConfig(f, ext)
}

// DecodeConfig reads from r to decode a Config.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	cfg := DefaultConfig()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil && err != io.EOF {
			return cfg, err
		}
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	return cfg, cfg.Validate()
}
