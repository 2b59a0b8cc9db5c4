package agent

import (
	"testing"

	"github.com/kilianp07/railsim/core/model"
)

type stations map[string]model.Point

func (s stations) Position(name string) (model.Point, bool) {
	p, ok := s[name]
	return p, ok
}

var lineStations = stations{
	"A": {X: 0, Y: 0},
	"B": {X: 300, Y: 0},
	"C": {X: 600, Y: 0},
}

func ev(src, dst string, start, end int) model.ScheduleEvent {
	return model.ScheduleEvent{TrainID: 1, Source: src, Target: dst, StartTime: start, EndTime: end}
}

func TestAgentFollowsSchedule(t *testing.T) {
	a := New(1, model.Color{}, "A")
	a.Enqueue(ev("A", "B", 0, 60), ev("B", "C", 65, 125))

	a.Tick(0, lineStations)
	if a.Status() != StatusMoving || a.Position() != (model.Point{}) {
		t.Fatalf("expected moving at A got %v %v", a.Status(), a.Position())
	}
	a.Tick(30, lineStations)
	if a.Position().X != 150 {
		t.Fatalf("expected halfway got %v", a.Position())
	}
	a.Tick(60, lineStations)
	if a.Status() != StatusMoving || a.Position().X != 300 {
		t.Fatalf("still on segment at end_time: %v %v", a.Status(), a.Position())
	}

	up := a.Tick(61, lineStations)
	if len(up.Completed) != 1 || a.CurrentNode() != "B" {
		t.Fatalf("expected segment completed at B got %+v node=%s", up, a.CurrentNode())
	}
	if a.Status() != StatusWaiting {
		t.Fatalf("expected WAITING during dwell got %v", a.Status())
	}

	a.Tick(66, lineStations)
	if a.Status() != StatusMoving {
		t.Fatalf("expected MOVING on second leg got %v", a.Status())
	}

	up = a.Tick(126, lineStations)
	if !up.Arrived || a.Status() != StatusArrived || a.CurrentNode() != "C" {
		t.Fatalf("expected arrival at C got %+v %v %s", up, a.Status(), a.CurrentNode())
	}
	if a.Position().X != 600 {
		t.Fatalf("expected position at C got %v", a.Position())
	}
	if up = a.Tick(127, lineStations); up.Arrived {
		t.Fatalf("arrival reported twice")
	}

	snap := a.Snapshot()
	if snap.TripsCompleted != 2 || snap.Pending != 0 || snap.Current != nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.TotalWait != 1 || snap.JourneyTime != 4 {
		t.Fatalf("unexpected wait/journey %+v", snap)
	}
}

func TestAgentDelayed(t *testing.T) {
	a := New(1, model.Color{}, "A", WithDwell(5))
	a.Enqueue(ev("A", "B", 0, 60), ev("B", "C", 100, 160))
	for now := 0; now <= 66; now++ {
		a.Tick(now, lineStations)
	}
	if a.Status() != StatusDelayed {
		t.Fatalf("expected DELAYED got %v", a.Status())
	}
	snap := a.Snapshot()
	if snap.DelayAccumulated != 1 || snap.TotalWait != 6 {
		t.Fatalf("unexpected counters %+v", snap)
	}
}

func TestAgentCatchesUpSeveralSegments(t *testing.T) {
	a := New(1, model.Color{}, "A")
	a.Enqueue(ev("A", "B", 0, 60), ev("B", "C", 60, 120))
	up := a.Tick(200, lineStations)
	if len(up.Completed) != 2 || !up.Arrived || a.CurrentNode() != "C" {
		t.Fatalf("expected both segments completed got %+v", up)
	}
}

func TestAgentEmptyQueueArrives(t *testing.T) {
	a := New(2, model.Color{}, "A")
	if a.Status() != StatusWaiting {
		t.Fatalf("new agent should wait")
	}
	if up := a.Tick(0, lineStations); !up.Arrived {
		t.Fatalf("empty agent should arrive")
	}
	a.Enqueue(ev("A", "B", 10, 70))
	if a.Status() != StatusWaiting {
		t.Fatalf("enqueue should leave ARRIVED")
	}
}

func TestAgentReset(t *testing.T) {
	a := New(1, model.Color{}, "A")
	a.Enqueue(ev("A", "B", 0, 60))
	a.Tick(61, lineStations)
	a.Reset("C", lineStations)
	snap := a.Snapshot()
	if snap.CurrentNode != "C" || snap.TripsCompleted != 0 || snap.Pending != 0 || snap.Position.X != 600 {
		t.Fatalf("reset failed %+v", snap)
	}
}

func TestRingQueue(t *testing.T) {
	var r ring[int]
	for i := 0; i < 20; i++ {
		r.Push(i)
		if i%3 == 0 {
			r.Pop()
		}
	}
	items := r.Items()
	if len(items) != r.Len() {
		t.Fatalf("len mismatch")
	}
	for i := 1; i < len(items); i++ {
		if items[i] != items[i-1]+1 {
			t.Fatalf("order broken: %v", items)
		}
	}
	if v, _ := r.Peek(); v != items[0] {
		t.Fatalf("peek %d want %d", v, items[0])
	}
	r.Clear()
	if _, ok := r.Pop(); ok {
		t.Fatalf("pop on empty ring")
	}
}

func TestStatusString(t *testing.T) {
	if StatusDelayed.String() != "DELAYED" || Status(9).String() != "UNKNOWN" {
		t.Fatalf("unexpected status names")
	}
}
