package network

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kilianp07/railsim/core/metrics/kpi"
)

// NewKPIHandler exposes per-train service KPIs via GET /api/trains/{id}/kpis.
// from and to are tick bounds; to defaults to now().
func NewKPIHandler(store kpi.Store, now func() int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, "/api/trains/")
		parts := strings.Split(path, "/")
		if len(parts) < 2 || parts[1] != "kpis" {
			http.NotFound(w, r)
			return
		}
		id, err := strconv.Atoi(parts[0])
		if err != nil {
			http.Error(w, "invalid train id", http.StatusBadRequest)
			return
		}
		from, _ := strconv.Atoi(r.URL.Query().Get("from"))
		to := now()
		if s := r.URL.Query().Get("to"); s != "" {
			if v, err := strconv.Atoi(s); err == nil {
				to = v
			}
		}
		recs, err := store.Query(id, from, to)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		type out struct {
			Window      int     `json:"window"`
			Trips       int     `json:"trips"`
			Schedules   int     `json:"schedules"`
			AverageTrip float64 `json:"average_trip"`
			RetryRate   float64 `json:"retry_rate"`
		}
		outSlice := make([]out, len(recs))
		for i, r := range recs {
			outSlice[i] = out{
				Window:      r.Window,
				Trips:       r.Trips,
				Schedules:   r.Schedules,
				AverageTrip: r.AverageTrip(),
				RetryRate:   r.RetryRate(),
			}
		}
		writeJSON(w, outSlice)
	})
}
