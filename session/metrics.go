package session

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/sensorlink/metric"
)

type controllerMetrics struct {
	readingsAccepted *prometheus.CounterVec
	readingsStale    prometheus.Counter
	reportsSurfaced  prometheus.Counter
	commandsSent     *prometheus.CounterVec
	displayCleared   prometheus.Counter
}

func newControllerMetrics(reg metric.MetricsRegistrar, component string) (*controllerMetrics, error) {
	m := &controllerMetrics{
		readingsAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorlink_readings_accepted_total",
			Help: "Readings accepted into session state, by kind",
		}, []string{"kind"}),
		readingsStale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_readings_stale_total",
			Help: "Raw readings discarded by the freshness gate",
		}),
		reportsSurfaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_session_reports_total",
			Help: "Terminal session reports surfaced",
		}),
		commandsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorlink_commands_sent_total",
			Help: "Session commands emitted, by type",
		}, []string{"type"}),
		displayCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_display_cleared_total",
			Help: "Display buffer clears triggered by link or collection loss",
		}),
	}

	if reg == nil {
		return m, nil
	}

	registrations := []struct {
		name string
		fn   func() error
	}{
		{"readings_accepted_total", func() error { return reg.RegisterCounterVec(component, "readings_accepted_total", m.readingsAccepted) }},
		{"readings_stale_total", func() error { return reg.RegisterCounter(component, "readings_stale_total", m.readingsStale) }},
		{"session_reports_total", func() error { return reg.RegisterCounter(component, "session_reports_total", m.reportsSurfaced) }},
		{"commands_sent_total", func() error { return reg.RegisterCounterVec(component, "commands_sent_total", m.commandsSent) }},
		{"display_cleared_total", func() error { return reg.RegisterCounter(component, "display_cleared_total", m.displayCleared) }},
	}
	for _, r := range registrations {
		if err := r.fn(); err != nil {
			return nil, fmt.Errorf("register %s: %w", r.name, err)
		}
	}
	return m, nil
}
