// Package metrics defines the sink interfaces used to observe the
// scheduler and the simulation. A MetricsSink records scheduling calls;
// sinks may also implement the optional recorders for cleanup sweeps,
// skipped segments, completed trips and train snapshots. Sinks are created
// by name through the factory registry and combined with NewMultiSink when
// several are configured.
package metrics
