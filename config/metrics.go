package config

import (
	"fmt"

	"github.com/kilianp07/railsim/core/factory"
	"github.com/kilianp07/railsim/core/metrics"
)

// MetricsConfig selects the metrics sinks and the HTTP exposition.
type MetricsConfig struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// StateEvery forwards train snapshots every N ticks.
	StateEvery int `json:"state_every"`
	// PromAddr serves /metrics when non-empty.
	PromAddr string `json:"prom_addr"`
	// KPIWindow is the aggregation window of the KPI store, in ticks.
	KPIWindow int `json:"kpi_window"`
}

func (c *MetricsConfig) SetDefaults() {
	if c.StateEvery <= 0 {
		c.StateEvery = 10
	}
	if c.KPIWindow <= 0 {
		c.KPIWindow = 500
	}
}

func (c MetricsConfig) Validate() error {
	for _, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("sink type is required")
		}
	}
	return nil
}

// Core returns the sink configuration understood by the metrics factory.
func (c MetricsConfig) Core() metrics.Config {
	return metrics.Config{Sinks: c.Sinks, StateEvery: c.StateEvery}
}

// APIConfig controls the read-only HTTP API.
type APIConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
