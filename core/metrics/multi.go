package metrics

// MultiSink fans records out to several sinks. Optional recorders are only
// forwarded to sinks that implement them.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSchedule forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSchedule(rec ScheduleRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordSchedule(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordReservations forwards cleanup events.
func (m *MultiSink) RecordReservations(ev ReservationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ReservationRecorder); ok {
			if err := rec.RecordReservations(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSlotUnavailable forwards skipped segments.
func (m *MultiSink) RecordSlotUnavailable(ev SlotUnavailableEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(SlotUnavailableRecorder); ok {
			if err := rec.RecordSlotUnavailable(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTrip forwards completed traversals.
func (m *MultiSink) RecordTrip(ev TripEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TripRecorder); ok {
			if err := rec.RecordTrip(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTrainState forwards train snapshots.
func (m *MultiSink) RecordTrainState(ev TrainStateEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TrainStateRecorder); ok {
			if err := rec.RecordTrainState(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink holding resources, such as the Influx client.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
