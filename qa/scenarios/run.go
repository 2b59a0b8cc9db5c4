package scenarios

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/railsim/core/metrics"
	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/scheduler"
	"github.com/kilianp07/railsim/core/topology"
	"github.com/kilianp07/railsim/infra/logger"
	"github.com/kilianp07/railsim/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	net := buildNetwork(sc)
	sched, err := scheduler.New(net, sc.Scheduler, scheduler.WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("scheduler: %v", err)
	}
	for _, s := range sc.Seed {
		sched.Table().Reserve(s.From, s.To, s.Start, s.End, s.TrainID)
	}

	for i, req := range sc.Requests {
		mode, err := req.Mode()
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		res, err := sched.ScheduleRoute(req.TrainID, req.Stops, model.Color{}, req.Start, mode)
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		_ = sink.RecordSchedule(coremetrics.ScheduleRecord{
			TrainID:          req.TrainID,
			Algorithm:        mode.String(),
			Events:           len(res.Events),
			ConflictsAvoided: res.ConflictsAvoided,
			Skipped:          len(res.Skipped),
			Latency:          res.Elapsed,
		})
		checkResult(t, sc.Name, i, req.Expect, res)
	}

	if err := sched.Validate(); err != nil {
		t.Errorf("scenario %s: %v", sc.Name, err)
	}
	total := 0
	for _, rs := range sched.Reservations() {
		total += len(rs)
	}
	if total != sc.Expected.Reservations {
		t.Errorf("scenario %s expected %d reservations, got %d", sc.Name, sc.Expected.Reservations, total)
	}
	if got := int(counterSum(t, reg, "railsim_conflicts_avoided_total")); got != sc.Expected.Conflicts {
		t.Errorf("scenario %s expected %d conflicts avoided, got %d", sc.Name, sc.Expected.Conflicts, got)
	}
}

func buildNetwork(sc *Scenario) *topology.Network {
	net := topology.New()
	for _, s := range sc.Stations {
		net.AddStation(s.Name, s.X, s.Y)
	}
	for _, tr := range sc.Tracks {
		net.AddTrack(tr.From, tr.To)
	}
	return net
}

func checkResult(t *testing.T, name string, i int, want Expect, res scheduler.Result) {
	t.Helper()
	if len(res.Events) != want.Events {
		t.Errorf("scenario %s request %d expected %d events, got %d", name, i, want.Events, len(res.Events))
	}
	if res.ConflictsAvoided != want.Conflicts {
		t.Errorf("scenario %s request %d expected %d conflicts, got %d", name, i, want.Conflicts, res.ConflictsAvoided)
	}
	if len(res.Skipped) != want.Skipped {
		t.Errorf("scenario %s request %d expected %d skipped, got %d", name, i, want.Skipped, len(res.Skipped))
	}
	if len(res.Events) == 0 {
		return
	}
	if want.FirstStart != nil && res.Events[0].StartTime != *want.FirstStart {
		t.Errorf("scenario %s request %d expected first start %d, got %d", name, i, *want.FirstStart, res.Events[0].StartTime)
	}
	if want.LastEnd != nil && res.Events[len(res.Events)-1].EndTime != *want.LastEnd {
		t.Errorf("scenario %s request %d expected last end %d, got %d", name, i, *want.LastEnd, res.Events[len(res.Events)-1].EndTime)
	}
}

func counterSum(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sum float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}
