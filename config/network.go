package config

import (
	"fmt"
	"strings"

	"github.com/kilianp07/railsim/core/topology"
)

// PresetFantasy is the built-in eight-station demo map.
const PresetFantasy = "fantasy"

type StationConfig struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type TrackConfig struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// NetworkConfig lists the stations and tracks. When Preset is set and no
// station is given the preset map is used.
type NetworkConfig struct {
	Preset   string          `json:"preset"`
	Stations []StationConfig `json:"stations"`
	Tracks   []TrackConfig   `json:"tracks"`
}

// SetDefaults expands the preset.
func (c *NetworkConfig) SetDefaults() {
	if len(c.Stations) == 0 && strings.EqualFold(c.Preset, PresetFantasy) {
		c.Stations, c.Tracks = fantasyStations(), fantasyTracks()
	}
}

// Validate checks that station names are unique and every track joins two
// known stations.
func (c NetworkConfig) Validate() error {
	if c.Preset != "" && !strings.EqualFold(c.Preset, PresetFantasy) {
		return fmt.Errorf("unknown preset %q", c.Preset)
	}
	names := make(map[string]bool, len(c.Stations))
	for _, s := range c.Stations {
		if s.Name == "" {
			return fmt.Errorf("station name is required")
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate station %s", s.Name)
		}
		names[s.Name] = true
	}
	for _, t := range c.Tracks {
		if !names[t.From] || !names[t.To] {
			return fmt.Errorf("track %s-%s references an unknown station", t.From, t.To)
		}
		if t.From == t.To {
			return fmt.Errorf("track %s-%s is a loop", t.From, t.To)
		}
	}
	return nil
}

// Build creates the topology described by c.
func (c NetworkConfig) Build() *topology.Network {
	n := topology.New()
	for _, s := range c.Stations {
		n.AddStation(s.Name, s.X, s.Y)
	}
	for _, t := range c.Tracks {
		n.AddTrack(t.From, t.To)
	}
	return n
}

func fantasyStations() []StationConfig {
	return []StationConfig{
		{Name: "Highpoint", X: 500, Y: 100},
		{Name: "Deepwood", X: 800, Y: 150},
		{Name: "Westgate", X: 150, Y: 300},
		{Name: "Aethelgard", X: 500, Y: 300},
		{Name: "Ironhaven", X: 750, Y: 300},
		{Name: "Eastport", X: 950, Y: 300},
		{Name: "Rivermouth", X: 250, Y: 550},
		{Name: "Suncrest", X: 600, Y: 550},
	}
}

func fantasyTracks() []TrackConfig {
	return []TrackConfig{
		{From: "Highpoint", To: "Aethelgard"},
		{From: "Highpoint", To: "Deepwood"},
		{From: "Deepwood", To: "Ironhaven"},
		{From: "Westgate", To: "Aethelgard"},
		{From: "Westgate", To: "Rivermouth"},
		{From: "Rivermouth", To: "Suncrest"},
		{From: "Aethelgard", To: "Suncrest"},
		{From: "Aethelgard", To: "Ironhaven"},
		{From: "Ironhaven", To: "Suncrest"},
		{From: "Ironhaven", To: "Eastport"},
	}
}
