// Package network exposes read-only HTTP views of a running simulation.
package network

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/kilianp07/railsim/core/model"
	"github.com/kilianp07/railsim/core/simulation"
	"github.com/kilianp07/railsim/pkg/export"
)

// ReservationSource provides a snapshot of the reservation table.
type ReservationSource interface {
	Reservations() map[model.EdgeKey][]model.Reservation
}

// TrainSource provides train snapshots.
type TrainSource interface {
	Trains() []model.TrainSnapshot
}

// StatsSource provides engine counters.
type StatsSource interface {
	Stats() simulation.Stats
}

// TopologySource provides the stations and tracks of the network.
type TopologySource interface {
	Stations() []model.Station
	AllEdges() []model.Track
}

// EdgeReservations lists the intervals booked on one segment.
type EdgeReservations struct {
	Edge         string              `json:"edge"`
	A            string              `json:"a"`
	B            string              `json:"b"`
	Reservations []model.Reservation `json:"reservations"`
}

// TopologyView is the JSON body of GET /api/network.
type TopologyView struct {
	Stations []model.Station `json:"stations"`
	Tracks   []model.Track   `json:"tracks"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// NewReservationsHandler serves GET /api/reservations. The optional edge
// query parameter ("A|B" in either order) restricts the result to one
// segment; format=csv switches the body to CSV.
func NewReservationsHandler(src ReservationSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		table := src.Reservations()
		if e := r.URL.Query().Get("edge"); e != "" {
			parts := strings.Split(e, "|")
			if len(parts) != 2 {
				http.Error(w, "edge must be A|B", http.StatusBadRequest)
				return
			}
			k := model.NewEdgeKey(parts[0], parts[1])
			filtered := map[model.EdgeKey][]model.Reservation{}
			if rs, ok := table[k]; ok {
				filtered[k] = rs
			}
			table = filtered
		}
		if r.URL.Query().Get("format") == "csv" {
			w.Header().Set("Content-Type", "text/csv")
			if err := export.WriteReservationsCSV(w, table); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		out := make([]EdgeReservations, 0, len(table))
		for k, rs := range table {
			out = append(out, EdgeReservations{Edge: k.String(), A: k.A, B: k.B, Reservations: rs})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Edge < out[j].Edge })
		writeJSON(w, out)
	})
}

// NewTrainsHandler serves GET /api/trains with an optional status filter.
func NewTrainsHandler(src TrainSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		trains := src.Trains()
		if st := strings.ToUpper(r.URL.Query().Get("status")); st != "" {
			filtered := trains[:0:0]
			for _, t := range trains {
				if t.Status == st {
					filtered = append(filtered, t)
				}
			}
			trains = filtered
		}
		if trains == nil {
			trains = []model.TrainSnapshot{}
		}
		writeJSON(w, trains)
	})
}

// NewStatsHandler serves GET /api/stats.
func NewStatsHandler(src StatsSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, src.Stats())
	})
}

// NewTopologyHandler serves GET /api/network.
func NewTopologyHandler(src TopologySource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, TopologyView{Stations: src.Stations(), Tracks: src.AllEdges()})
	})
}
