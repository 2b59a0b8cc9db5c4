package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/railsim/core/metrics"
	"github.com/kilianp07/railsim/core/metrics/kpi"
)

// KPISink aggregates per-train service indicators in a kpi.Store and
// mirrors the current window in Prometheus gauges.
type KPISink struct {
	store   kpi.Store
	window  int
	trips   *prometheus.GaugeVec
	avgTrip *prometheus.GaugeVec
	retries *prometheus.GaugeVec
}

// NewKPISink creates a sink aggregating over windows of window ticks with
// gauges registered on reg.
func NewKPISink(store kpi.Store, window int, reg prometheus.Registerer) (*KPISink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	labels := []string{"train_id", "window"}
	s := &KPISink{store: store, window: window}
	var err error
	if s.trips, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_train_window_trips",
		Help: "Segments traversed per train in the tick window",
	}, labels)); err != nil {
		return nil, err
	}
	if s.avgTrip, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_train_window_avg_trip_ticks",
		Help: "Mean booked traversal time per train in the tick window",
	}, labels)); err != nil {
		return nil, err
	}
	if s.retries, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_train_window_retry_rate",
		Help: "Conflicts avoided per scheduling call in the tick window",
	}, labels)); err != nil {
		return nil, err
	}
	return s, nil
}

// RecordSchedule adds the retries of a scheduling call.
func (s *KPISink) RecordSchedule(rec coremetrics.ScheduleRecord) error {
	return s.add(kpi.Record{TrainID: rec.TrainID, Window: rec.Tick, Retries: rec.ConflictsAvoided, Schedules: 1})
}

// RecordTrip adds a completed traversal.
func (s *KPISink) RecordTrip(ev coremetrics.TripEvent) error {
	return s.add(kpi.Record{TrainID: ev.TrainID, Window: ev.Tick, Trips: 1, TravelTicks: ev.Duration()})
}

func (s *KPISink) add(r kpi.Record) error {
	if err := s.store.Add(r); err != nil {
		return err
	}
	records, err := s.store.Query(r.TrainID, r.Window, r.Window)
	if err != nil || len(records) == 0 {
		return err
	}
	rr := records[0]
	id, w := strconv.Itoa(rr.TrainID), strconv.Itoa(kpi.Window(rr.Window, s.window))
	s.trips.WithLabelValues(id, w).Set(float64(rr.Trips))
	s.avgTrip.WithLabelValues(id, w).Set(rr.AverageTrip())
	s.retries.WithLabelValues(id, w).Set(rr.RetryRate())
	return nil
}
