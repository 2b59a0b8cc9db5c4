package metrics

import "github.com/kilianp07/railsim/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// StateEvery records train snapshots every N ticks. 0 disables them.
	StateEvery int `json:"state_every" yaml:"state_every"`
}
