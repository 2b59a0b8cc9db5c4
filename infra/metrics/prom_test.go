package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/railsim/core/metrics"
	"github.com/kilianp07/railsim/core/model"
)

func TestPromSink_RecordSchedule(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	recs := []coremetrics.ScheduleRecord{
		{TrainID: 1, Algorithm: "GREEDY", Events: 1, Latency: time.Millisecond},
		{TrainID: 2, Algorithm: "GREEDY", Events: 1, ConflictsAvoided: 4, Latency: time.Millisecond},
		{TrainID: 3, Algorithm: "CSP", Events: 0, ConflictsAvoided: 501, Skipped: 1, Latency: 2 * time.Millisecond},
	}
	for _, r := range recs {
		if err := sink.RecordSchedule(r); err != nil {
			t.Fatalf("record error: %v", err)
		}
	}

	expected := `
# HELP railsim_routes_scheduled_total Total number of scheduling calls
# TYPE railsim_routes_scheduled_total counter
railsim_routes_scheduled_total{algorithm="CSP"} 1
railsim_routes_scheduled_total{algorithm="GREEDY"} 2
`
	if err := testutil.CollectAndCompare(sink.routes, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.conflicts.WithLabelValues("GREEDY")); v != 4 {
		t.Errorf("expected 4 conflicts got %v", v)
	}
	if v := testutil.ToFloat64(sink.skipped.WithLabelValues("CSP")); v != 1 {
		t.Errorf("expected 1 skipped got %v", v)
	}
	if c := testutil.CollectAndCount(sink.latency); c != 2 {
		t.Errorf("expected 2 latency series got %d", c)
	}
}

func TestPromSink_RuntimeRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordReservations(coremetrics.ReservationEvent{Removed: 3, Remaining: 7}); err != nil {
		t.Fatalf("reservations: %v", err)
	}
	if v := testutil.ToFloat64(sink.active); v != 7 {
		t.Errorf("expected 7 active got %v", v)
	}
	if v := testutil.ToFloat64(sink.pruned); v != 3 {
		t.Errorf("expected 3 pruned got %v", v)
	}
	if err := sink.RecordTrip(coremetrics.TripEvent{TrainID: 2}); err != nil {
		t.Fatalf("trip: %v", err)
	}
	if v := testutil.ToFloat64(sink.trips.WithLabelValues("2")); v != 1 {
		t.Errorf("expected 1 trip got %v", v)
	}
	snap := model.TrainSnapshot{TrainID: 2, DelayAccumulated: 12, TotalWait: 30}
	if err := sink.RecordTrainState(coremetrics.TrainStateEvent{Snapshot: snap}); err != nil {
		t.Fatalf("state: %v", err)
	}
	if v := testutil.ToFloat64(sink.delay.WithLabelValues("2")); v != 12 {
		t.Errorf("expected delay 12 got %v", v)
	}
	if v := testutil.ToFloat64(sink.wait.WithLabelValues("2")); v != 30 {
		t.Errorf("expected wait 30 got %v", v)
	}
}

func TestPromSink_ReuseRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
	if err := second.RecordSchedule(coremetrics.ScheduleRecord{Algorithm: "GREEDY"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if v := testutil.ToFloat64(first.routes.WithLabelValues("GREEDY")); v != 1 {
		t.Fatalf("expected shared counter got %v", v)
	}
}
