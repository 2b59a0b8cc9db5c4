package network

import (
	"context"
	"net/http"
	"time"

	"github.com/kilianp07/railsim/core/logger"
	"github.com/kilianp07/railsim/core/metrics/kpi"
	"github.com/kilianp07/railsim/core/topology"
)

// Engine is the simulation surface read by the API.
type Engine interface {
	ReservationSource
	TrainSource
	StatsSource
	Now() int
	Network() *topology.Network
}

// NewRouter mounts every read endpoint. store may be nil, in which case the
// KPI endpoint is not served.
func NewRouter(eng Engine, store kpi.Store) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/reservations", NewReservationsHandler(eng))
	mux.Handle("/api/trains", NewTrainsHandler(eng))
	mux.Handle("/api/stats", NewStatsHandler(eng))
	mux.Handle("/api/network", NewTopologyHandler(eng.Network()))
	if store != nil {
		mux.Handle("/api/trains/", NewKPIHandler(store, eng.Now))
	}
	return mux
}

// Serve runs an HTTP server for h until ctx is canceled.
func Serve(ctx context.Context, addr string, h http.Handler, log logger.Logger) error {
	if log == nil {
		log = logger.NopLogger{}
	}
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("api server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("serving api on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
