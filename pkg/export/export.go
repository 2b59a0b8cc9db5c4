// Package export writes schedules and reservation tables to JSON or CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/kilianp07/railsim/core/model"
)

// WriteJSON writes the schedule events to w in JSON format.
func WriteJSON(w io.Writer, events []model.ScheduleEvent) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(events)
}

// WriteCSV writes the schedule events to w in CSV format with a header row.
func WriteCSV(w io.Writer, events []model.ScheduleEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"train_id", "source", "target", "start_time", "end_time", "color"}); err != nil {
		return err
	}
	for _, e := range events {
		rec := []string{
			strconv.Itoa(e.TrainID),
			e.Source,
			e.Target,
			strconv.Itoa(e.StartTime),
			strconv.Itoa(e.EndTime),
			e.Color.Hex(),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReservationsCSV writes one row per reserved interval, segments in
// key order and intervals in insertion order.
func WriteReservationsCSV(w io.Writer, table map[model.EdgeKey][]model.Reservation) error {
	keys := make([]model.EdgeKey, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"edge", "train_id", "start_time", "end_time"}); err != nil {
		return err
	}
	for _, k := range keys {
		for _, r := range table[k] {
			rec := []string{k.String(), strconv.Itoa(r.TrainID), strconv.Itoa(r.Start), strconv.Itoa(r.End)}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
