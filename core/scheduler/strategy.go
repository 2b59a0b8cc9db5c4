package scheduler

import (
	"fmt"

	"github.com/kilianp07/railsim/core/factory"
	"github.com/kilianp07/railsim/core/model"
)

const (
	// GreedyStep is the wait applied by GREEDY after each conflict.
	GreedyStep = 20
	// ProbeStep is the offset tried by CSP after each conflict.
	ProbeStep = 10
	// ProbeBound is the largest offset from the cursor CSP will try.
	ProbeBound = 5000
)

// ConflictChecker answers padded overlap queries on a segment.
type ConflictChecker interface {
	HasConflict(u, v string, start, end, margin int) bool
}

// Slot is the outcome of a slot search on one segment.
type Slot struct {
	Start   int
	Retries int
	Found   bool
}

// SlotFinder searches for the first start time at or after cursor where a
// traversal of weight ticks does not conflict.
type SlotFinder interface {
	FindSlot(c ConflictChecker, u, v string, cursor, weight, margin int) Slot
}

// Greedy waits Step ticks after every conflict and never gives up.
type Greedy struct {
	Step int
}

// FindSlot implements SlotFinder.
func (g Greedy) FindSlot(c ConflictChecker, u, v string, cursor, weight, margin int) Slot {
	step := g.Step
	if step <= 0 {
		step = GreedyStep
	}
	t := cursor
	retries := 0
	for c.HasConflict(u, v, t, t+weight, margin) {
		t += step
		retries++
	}
	return Slot{Start: t, Retries: retries, Found: true}
}

// BoundedProbe tries offsets Step apart and stops once the offset from the
// cursor exceeds Bound.
type BoundedProbe struct {
	Step  int
	Bound int
}

// FindSlot implements SlotFinder.
func (p BoundedProbe) FindSlot(c ConflictChecker, u, v string, cursor, weight, margin int) Slot {
	step, bound := p.Step, p.Bound
	if step <= 0 {
		step = ProbeStep
	}
	if bound <= 0 {
		bound = ProbeBound
	}
	attempt := cursor
	retries := 0
	for {
		if !c.HasConflict(u, v, attempt, attempt+weight, margin) {
			return Slot{Start: attempt, Retries: retries, Found: true}
		}
		attempt += step
		retries++
		if attempt-cursor > bound {
			return Slot{Start: attempt, Retries: retries}
		}
	}
}

var finderRegistry = factory.NewRegistry[SlotFinder]()

func init() {
	_ = RegisterSlotFinder(model.AlgorithmGreedy.String(), func(conf map[string]any) (SlotFinder, error) {
		var c struct {
			Step int `json:"step"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return Greedy{Step: c.Step}, nil
	})
	_ = RegisterSlotFinder(model.AlgorithmCSP.String(), func(conf map[string]any) (SlotFinder, error) {
		var c struct {
			Step  int `json:"step"`
			Bound int `json:"bound"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return BoundedProbe{Step: c.Step, Bound: c.Bound}, nil
	})
}

// RegisterSlotFinder adds a slot finder factory identified by algorithm name.
func RegisterSlotFinder(name string, f factory.Factory[SlotFinder]) error {
	return finderRegistry.Register(name, f)
}

// NewSlotFinder creates a SlotFinder from its module configuration.
func NewSlotFinder(cfg factory.ModuleConfig) (SlotFinder, error) {
	f, err := finderRegistry.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("slot finder: %w", err)
	}
	return f, nil
}

func defaultFinders() map[model.Algorithm]SlotFinder {
	return map[model.Algorithm]SlotFinder{
		model.AlgorithmGreedy: Greedy{Step: GreedyStep},
		model.AlgorithmCSP:    BoundedProbe{Step: ProbeStep, Bound: ProbeBound},
	}
}
