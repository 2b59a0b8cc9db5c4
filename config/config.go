package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/scheduler"
	"github.com/kilianp07/railsim/core/simulation"
	"github.com/kilianp07/railsim/infra/mqtt"
)

// EnvPrefix marks environment variables that override file values.
// RAILSIM_SCHEDULER__MARGIN=15 sets scheduler.margin.
const EnvPrefix = "RAILSIM_"

type Config struct {
	Network    NetworkConfig       `json:"network"`
	Routes     []model.RouteConfig `json:"routes"`
	Scheduler  scheduler.Config    `json:"scheduler"`
	Simulation simulation.Config   `json:"simulation"`
	Metrics    MetricsConfig       `json:"metrics"`
	MQTT       mqtt.Config         `json:"mqtt"`
	API        APIConfig           `json:"api"`
	Logging    LoggingConfig       `json:"logging"`
}

// Default returns a configuration with every section at its default value
// and no network.
func Default() *Config {
	cfg := &Config{
		Scheduler:  scheduler.DefaultConfig(),
		Simulation: simulation.DefaultConfig(),
	}
	cfg.SetDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefaults fills the fields left empty by the file.
func (c *Config) SetDefaults() {
	c.Network.SetDefaults()
	c.Metrics.SetDefaults()
	c.API.SetDefaults()
	c.Logging.SetDefaults()
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "railsim"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	if err := c.validateRoutes(); err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker is required when enabled")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

func (c *Config) validateRoutes() error {
	seen := map[int]bool{}
	for _, r := range c.Routes {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.TrainID] {
			return fmt.Errorf("duplicate train id %d", r.TrainID)
		}
		seen[r.TrainID] = true
	}
	return nil
}
