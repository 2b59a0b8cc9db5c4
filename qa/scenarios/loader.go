package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/scheduler"
)

type StationDef struct {
	Name string  `yaml:"name"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
}

type TrackDef struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// SeedDef is a reservation placed in the table before any request runs.
type SeedDef struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Start   int    `yaml:"start"`
	End     int    `yaml:"end"`
	TrainID int    `yaml:"train_id"`
}

type RequestDef struct {
	TrainID   int      `yaml:"train_id"`
	Stops     []string `yaml:"stops"`
	Start     int      `yaml:"start"`
	Algorithm string   `yaml:"algorithm"`
	Expect    Expect   `yaml:"expect"`
}

func (r RequestDef) Mode() (model.Algorithm, error) {
	if r.Algorithm == "" {
		return model.AlgorithmGreedy, nil
	}
	return model.ParseAlgorithm(r.Algorithm)
}

// Expect describes the result of one request. Nil bounds are not checked.
type Expect struct {
	Events     int  `yaml:"events"`
	Conflicts  int  `yaml:"conflicts"`
	Skipped    int  `yaml:"skipped"`
	FirstStart *int `yaml:"first_start,omitempty"`
	LastEnd    *int `yaml:"last_end,omitempty"`
}

type Expected struct {
	Reservations int `yaml:"reservations"`
	Conflicts    int `yaml:"conflicts"`
}

type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Stations    []StationDef     `yaml:"stations"`
	Tracks      []TrackDef       `yaml:"tracks"`
	Seed        []SeedDef        `yaml:"seed,omitempty"`
	Scheduler   scheduler.Config `yaml:"scheduler"`
	Requests    []RequestDef     `yaml:"requests"`
	Expected    Expected         `yaml:"expected"`
}

// Load reads a scenario file. Scheduler settings absent from the file keep
// their default values.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sc := Scenario{Scheduler: scheduler.DefaultConfig()}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}
