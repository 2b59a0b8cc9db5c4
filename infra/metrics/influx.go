package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/railsim/core/metrics"
	"github.com/kilianp07/railsim/infra/logger"
)

// InfluxSink writes scheduling and runtime events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSchedule writes one point per scheduling call.
func (s *InfluxSink) RecordSchedule(rec coremetrics.ScheduleRecord) error {
	p := write.NewPointWithMeasurement("route_scheduled").
		AddTag("train_id", strconv.Itoa(rec.TrainID)).
		AddTag("algorithm", rec.Algorithm).
		AddTag("component", "scheduler").
		AddField("events", rec.Events).
		AddField("conflicts_avoided", rec.ConflictsAvoided).
		AddField("skipped", rec.Skipped).
		AddField("latency_ms", rec.Latency.Seconds()*1000).
		AddField("tick", rec.Tick).
		SetTime(rec.Time)
	return s.write(p)
}

// RecordReservations writes the outcome of a cleanup sweep.
func (s *InfluxSink) RecordReservations(ev coremetrics.ReservationEvent) error {
	p := write.NewPointWithMeasurement("reservation_cleanup").
		AddTag("component", "scheduler").
		AddField("removed", ev.Removed).
		AddField("remaining", ev.Remaining).
		AddField("segments", ev.Segments).
		AddField("tick", ev.Tick).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordSlotUnavailable writes a segment the scheduler gave up on.
func (s *InfluxSink) RecordSlotUnavailable(ev coremetrics.SlotUnavailableEvent) error {
	p := write.NewPointWithMeasurement("slot_unavailable").
		AddTag("train_id", strconv.Itoa(ev.TrainID)).
		AddTag("edge", ev.Edge).
		AddTag("component", "scheduler").
		AddField("cursor", ev.Cursor).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordTrip writes a completed traversal.
func (s *InfluxSink) RecordTrip(ev coremetrics.TripEvent) error {
	p := write.NewPointWithMeasurement("trip_completed").
		AddTag("train_id", strconv.Itoa(ev.TrainID)).
		AddTag("source", ev.Source).
		AddTag("target", ev.Target).
		AddTag("component", "simulation").
		AddField("start_time", ev.StartTime).
		AddField("end_time", ev.EndTime).
		AddField("tick", ev.Tick).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordTrainState writes a snapshot of a train.
func (s *InfluxSink) RecordTrainState(ev coremetrics.TrainStateEvent) error {
	snap := ev.Snapshot
	p := write.NewPointWithMeasurement("train_state").
		AddTag("train_id", strconv.Itoa(snap.TrainID)).
		AddTag("status", snap.Status)
	if ev.RunID != "" {
		p = p.AddTag("run_id", ev.RunID)
	}
	p = p.AddTag("node", snap.CurrentNode).
		AddField("x", snap.Position.X).
		AddField("y", snap.Position.Y).
		AddField("pending", snap.Pending).
		AddField("total_wait", snap.TotalWait).
		AddField("journey_time", snap.JourneyTime).
		AddField("trips", snap.TripsCompleted).
		AddField("delay", snap.DelayAccumulated).
		AddField("tick", snap.Tick).
		SetTime(ev.Time)
	return s.write(p)
}
