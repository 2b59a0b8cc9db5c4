package model

import (
	"fmt"
	"strings"
)

// Algorithm selects the conflict resolution strategy used by the scheduler.
type Algorithm int

const (
	// AlgorithmGreedy books the first free slot found by fixed-step waiting.
	AlgorithmGreedy Algorithm = iota
	// AlgorithmCSP probes finer offsets and gives up after a bounded search.
	AlgorithmCSP
)

// String returns the configuration name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmGreedy:
		return "GREEDY"
	case AlgorithmCSP:
		return "CSP"
	default:
		return "unknown"
	}
}

// ParseAlgorithm converts a name such as "greedy" or "CSP" to an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GREEDY", "":
		return AlgorithmGreedy, nil
	case "CSP":
		return AlgorithmCSP, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q", s)
	}
}

// RouteConfig describes the service pattern of a single train.
type RouteConfig struct {
	TrainID    int      `json:"train_id"`
	Stops      []string `json:"stops"`
	Color      Color    `json:"color"`
	StartDelay int      `json:"start_delay"`
	// Algorithm overrides the simulation default when set.
	Algorithm string `json:"algorithm"`
}

// Validate checks that the route can be handed to the scheduler.
func (r RouteConfig) Validate() error {
	if len(r.Stops) < 2 {
		return fmt.Errorf("route for train %d needs at least 2 stops", r.TrainID)
	}
	if r.StartDelay < 0 {
		return fmt.Errorf("route for train %d: negative start_delay", r.TrainID)
	}
	if r.Algorithm != "" {
		if _, err := ParseAlgorithm(r.Algorithm); err != nil {
			return fmt.Errorf("route for train %d: %w", r.TrainID, err)
		}
	}
	return nil
}
