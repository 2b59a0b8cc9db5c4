package simulation

import (
	"fmt"
	"time"

	"github.com/kilianp07/railsim/core/model"
)

// Config controls the pacing and looping behaviour of the engine.
type Config struct {
	// TickIntervalMS is the wall clock duration of one tick at speed 1.
	TickIntervalMS int `json:"tick_interval_ms"`
	// Speed multiplies the tick rate.
	Speed float64 `json:"speed"`
	// MaxTicks stops Run after this many ticks. 0 runs until cancelled.
	MaxTicks int `json:"max_ticks"`
	// Algorithm is used for routes that do not set their own.
	Algorithm string `json:"algorithm"`
	// Loop reschedules a train's route once it has arrived.
	Loop bool `json:"loop"`
	// RetryTicks delays the next reschedule attempt after an empty result.
	RetryTicks int `json:"retry_ticks"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		TickIntervalMS: 50,
		Speed:          1,
		Algorithm:      model.AlgorithmGreedy.String(),
		Loop:           true,
		RetryTicks:     20,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TickIntervalMS <= 0 {
		return fmt.Errorf("tick_interval_ms must be positive")
	}
	if c.Speed <= 0 {
		return fmt.Errorf("speed must be positive")
	}
	if c.MaxTicks < 0 || c.RetryTicks < 0 {
		return fmt.Errorf("max_ticks and retry_ticks must not be negative")
	}
	if _, err := model.ParseAlgorithm(c.Algorithm); err != nil {
		return err
	}
	return nil
}

// Interval returns the wall clock period between ticks.
func (c Config) Interval() time.Duration {
	d := time.Duration(float64(time.Duration(c.TickIntervalMS)*time.Millisecond) / c.Speed)
	if d <= 0 {
		d = time.Millisecond
	}
	return d
}
