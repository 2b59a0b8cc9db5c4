package monitoring

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	coremon "github.com/kilianp07/railsim/core/monitoring"
)

// LogMonitor reports errors and panics as error level log entries.
type LogMonitor struct {
	log zerolog.Logger
}

// NewLogMonitor returns a Monitor writing JSON entries to w.
func NewLogMonitor(w io.Writer) *LogMonitor {
	return &LogMonitor{log: zerolog.New(w).With().Timestamp().Str("component", "monitor").Logger()}
}

func (m *LogMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	ev := m.log.Error().Err(err)
	for k, v := range tags {
		ev = ev.Str(k, v)
	}
	ev.Msg("exception captured")
}

func (m *LogMonitor) CapturePanic(v any, tags map[string]string) {
	ev := m.log.Error().Str("panic", fmt.Sprint(v))
	for k, val := range tags {
		ev = ev.Str(k, val)
	}
	ev.Msg("panic captured")
}

// Flush is a no-op, entries are written synchronously.
func (m *LogMonitor) Flush(time.Duration) {}

var _ coremon.Monitor = (*LogMonitor)(nil)
