// Package infra groups the adapters that connect the simulator to the
// outside world: zerolog logging, Prometheus and InfluxDB sinks, the paho
// MQTT publisher and the log-backed monitor. Each subpackage implements an
// interface declared under core.
package infra
