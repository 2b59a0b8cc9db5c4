package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `network:
  stations:
    - {name: A, x: 0, y: 0}
    - {name: B, x: 300, y: 0}
  tracks:
    - {from: A, to: B}
routes:
  - train_id: 1
    stops: [A, B]
    color: {r: 200, g: 0, b: 0}
  - train_id: 2
    stops: [B, A]
    start_delay: 10
    algorithm: CSP
scheduler:
  margin: 25
  cleanup_grace: 100
simulation:
  speed: 2
  loop: false
metrics:
  sinks:
    - type: "nop"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  use_tls: false
api:
  enabled: true
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"stations", len(cfg.Network.Stations), 2},
		{"tracks", len(cfg.Network.Tracks), 1},
		{"routes", len(cfg.Routes), 2},
		{"route color", cfg.Routes[0].Color.R, uint8(200)},
		{"route algorithm", cfg.Routes[1].Algorithm, "CSP"},
		{"route delay", cfg.Routes[1].StartDelay, 10},
		{"scheduler.margin", cfg.Scheduler.Margin, 25},
		{"scheduler.cleanup_grace", cfg.Scheduler.CleanupGrace, 100},
		{"scheduler.dwell_ticks default", cfg.Scheduler.DwellTicks, 5},
		{"scheduler.cleanup_interval default", cfg.Scheduler.CleanupInterval, 500},
		{"simulation.speed", cfg.Simulation.Speed, 2.0},
		{"simulation.loop", cfg.Simulation.Loop, false},
		{"simulation.tick_interval_ms default", cfg.Simulation.TickIntervalMS, 50},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"metrics.kpi_window default", cfg.Metrics.KPIWindow, 500},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"topic_prefix default", cfg.MQTT.TopicPrefix, "railsim"},
		{"api.addr default", cfg.API.Addr, ":8080"},
		{"logging.level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	t.Setenv("RAILSIM_SCHEDULER__MARGIN", "30")
	t.Setenv("RAILSIM_SIMULATION__MAX_TICKS", "1000")
	path := writeFile(t, "config.json", `{"network": {"preset": "fantasy"}, "scheduler": {"margin": 15}}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Scheduler.Margin != 30 {
		t.Fatalf("expected env margin 30 got %d", cfg.Scheduler.Margin)
	}
	if cfg.Simulation.MaxTicks != 1000 {
		t.Fatalf("expected env max_ticks 1000 got %d", cfg.Simulation.MaxTicks)
	}
	if len(cfg.Network.Stations) != 8 || len(cfg.Network.Tracks) != 10 {
		t.Fatalf("expected fantasy preset got %d stations", len(cfg.Network.Stations))
	}
	net := cfg.Network.Build()
	if w, ok := net.Weight("Highpoint", "Aethelgard"); !ok || w != 40 {
		t.Fatalf("expected weight 40 got %d %v", w, ok)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"unknown station":   "network:\n  stations: [{name: A}]\n  tracks: [{from: A, to: B}]\n",
		"duplicate train":   "routes:\n  - {train_id: 1, stops: [A, B]}\n  - {train_id: 1, stops: [B, A]}\n",
		"short route":       "routes:\n  - {train_id: 1, stops: [A]}\n",
		"bad algorithm":     "simulation:\n  algorithm: astar\n",
		"negative margin":   "scheduler:\n  margin: -1\n",
		"mqtt broker":       "mqtt:\n  enabled: true\n",
		"log level":         "logging:\n  level: loud\n",
		"unknown preset":    "network:\n  preset: atlantis\n",
		"empty sink type":   "metrics:\n  sinks: [{conf: {}}]\n",
		"duplicate station": "network:\n  stations: [{name: A}, {name: A}]\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeFile(t, "c.yaml", data)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected unsupported format error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected missing file error")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Scheduler.Margin != 15 || cfg.Scheduler.LegMargin != 20 || !cfg.Simulation.Loop || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}
