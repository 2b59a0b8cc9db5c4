package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/railsim/core/factory"
	coremetrics "github.com/kilianp07/railsim/core/metrics"
)

type influxConf struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

func newNop(map[string]any) (coremetrics.MetricsSink, error) { return coremetrics.NopSink{}, nil }

// The prometheus sink always uses the default registerer so that the
// /metrics server started by StartPromServer exposes it.
func newProm(map[string]any) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

func newInflux(conf map[string]any) (coremetrics.MetricsSink, error) {
	var c influxConf
	if err := factory.Decode(conf, &c); err != nil {
		return nil, err
	}
	return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
}

func init() {
	for name, f := range map[string]factory.Factory[coremetrics.MetricsSink]{
		"nop":        newNop,
		"prometheus": newProm,
		"influx":     newInflux,
	} {
		_ = coremetrics.RegisterMetricsSink(name, f)
	}
}
