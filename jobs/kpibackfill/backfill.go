// Package kpibackfill rebuilds KPI records from an already booked schedule.
package kpibackfill

import (
	"github.com/kilianp07/railsim/core/metrics/kpi"
	"github.com/kilianp07/railsim/core/model"
)

// Backfill processes booked schedule events and populates the store. Each
// event counts as one trip in the window of its end time.
func Backfill(store kpi.Store, events []model.ScheduleEvent) error {
	for _, ev := range events {
		rec := kpi.Record{
			TrainID:     ev.TrainID,
			Window:      ev.EndTime,
			Trips:       1,
			TravelTicks: ev.Duration(),
		}
		if err := store.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
