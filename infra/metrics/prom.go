package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/railsim/core/metrics"
)

// PromSink records scheduling and runtime events in Prometheus metrics.
type PromSink struct {
	routes    *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	active    prometheus.Gauge
	pruned    prometheus.Counter
	trips     *prometheus.CounterVec
	delay     *prometheus.GaugeVec
	wait      *prometheus.GaugeVec
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.routes, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_routes_scheduled_total",
		Help: "Total number of scheduling calls",
	}, []string{"algorithm"})); err != nil {
		return nil, err
	}
	if s.conflicts, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_conflicts_avoided_total",
		Help: "Slot retries caused by conflicting reservations",
	}, []string{"algorithm"})); err != nil {
		return nil, err
	}
	if s.skipped, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_segments_skipped_total",
		Help: "Segments left unscheduled because no slot was found",
	}, []string{"algorithm"})); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "railsim_schedule_latency_seconds",
		Help:    "Wall clock duration of scheduling calls",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"algorithm"})); err != nil {
		return nil, err
	}
	if s.active, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsim_reservations_active",
		Help: "Intervals held in the reservation table after the last cleanup",
	})); err != nil {
		return nil, err
	}
	if s.pruned, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "railsim_reservations_pruned_total",
		Help: "Intervals removed by cleanup sweeps",
	})); err != nil {
		return nil, err
	}
	if s.trips, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_trips_completed_total",
		Help: "Segments traversed per train",
	}, []string{"train_id"})); err != nil {
		return nil, err
	}
	if s.delay, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_train_delay_ticks",
		Help: "Accumulated delay per train",
	}, []string{"train_id"})); err != nil {
		return nil, err
	}
	if s.wait, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_train_wait_ticks",
		Help: "Accumulated waiting time per train",
	}, []string{"train_id"})); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSchedule updates the scheduling counters and latency histogram.
func (s *PromSink) RecordSchedule(rec coremetrics.ScheduleRecord) error {
	alg := rec.Algorithm
	s.routes.WithLabelValues(alg).Inc()
	s.conflicts.WithLabelValues(alg).Add(float64(rec.ConflictsAvoided))
	s.skipped.WithLabelValues(alg).Add(float64(rec.Skipped))
	s.latency.WithLabelValues(alg).Observe(rec.Latency.Seconds())
	return nil
}

// RecordReservations sets the table size gauge.
func (s *PromSink) RecordReservations(ev coremetrics.ReservationEvent) error {
	s.active.Set(float64(ev.Remaining))
	s.pruned.Add(float64(ev.Removed))
	return nil
}

// RecordTrip counts a completed traversal.
func (s *PromSink) RecordTrip(ev coremetrics.TripEvent) error {
	s.trips.WithLabelValues(strconv.Itoa(ev.TrainID)).Inc()
	return nil
}

// RecordTrainState exports the delay and wait counters of a train.
func (s *PromSink) RecordTrainState(ev coremetrics.TrainStateEvent) error {
	id := strconv.Itoa(ev.Snapshot.TrainID)
	s.delay.WithLabelValues(id).Set(float64(ev.Snapshot.DelayAccumulated))
	s.wait.WithLabelValues(id).Set(float64(ev.Snapshot.TotalWait))
	return nil
}
