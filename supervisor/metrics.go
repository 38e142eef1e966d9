package supervisor

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/sensorlink/metric"
)

// supervisorMetrics holds the instruments the supervisor updates. They are
// registered under the component name so the registry rejects a second
// supervisor wired with the same name.
type supervisorMetrics struct {
	connectionState   prometheus.Gauge
	connectsTotal     prometheus.Counter
	disconnectsTotal  prometheus.Counter
	reconnectAttempts prometheus.Counter
	messagesReceived  *prometheus.CounterVec
	messagesSent      *prometheus.CounterVec
	messagesDropped   prometheus.Counter
	pingsSent         prometheus.Counter
	lastPongUnixMs    prometheus.Gauge
}

func newSupervisorMetrics(reg metric.MetricsRegistrar, component string) (*supervisorMetrics, error) {
	m := &supervisorMetrics{
		connectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorlink_connection_state",
			Help: "Current connection state (0 disconnected, 1 connecting, 2 connected, 3 error)",
		}),
		connectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_connects_total",
			Help: "Successful websocket connections",
		}),
		disconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_disconnects_total",
			Help: "Connection losses, both clean and abnormal",
		}),
		reconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_reconnect_attempts_total",
			Help: "Automatic reconnection attempts",
		}),
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorlink_messages_received_total",
			Help: "Inbound messages by type",
		}, []string{"type"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorlink_messages_sent_total",
			Help: "Outbound messages by type",
		}, []string{"type"}),
		messagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_messages_dropped_total",
			Help: "Inbound messages dropped because decoding failed or no handler matched",
		}),
		pingsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_pings_sent_total",
			Help: "Heartbeat pings sent",
		}),
		lastPongUnixMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensorlink_last_pong_unix_ms",
			Help: "Unix timestamp in milliseconds of the most recent pong",
		}),
	}

	if reg == nil {
		return m, nil
	}

	registrations := []struct {
		name string
		fn   func() error
	}{
		{"connection_state", func() error { return reg.RegisterGauge(component, "connection_state", m.connectionState) }},
		{"connects_total", func() error { return reg.RegisterCounter(component, "connects_total", m.connectsTotal) }},
		{"disconnects_total", func() error { return reg.RegisterCounter(component, "disconnects_total", m.disconnectsTotal) }},
		{"reconnect_attempts_total", func() error { return reg.RegisterCounter(component, "reconnect_attempts_total", m.reconnectAttempts) }},
		{"messages_received_total", func() error { return reg.RegisterCounterVec(component, "messages_received_total", m.messagesReceived) }},
		{"messages_sent_total", func() error { return reg.RegisterCounterVec(component, "messages_sent_total", m.messagesSent) }},
		{"messages_dropped_total", func() error { return reg.RegisterCounter(component, "messages_dropped_total", m.messagesDropped) }},
		{"pings_sent_total", func() error { return reg.RegisterCounter(component, "pings_sent_total", m.pingsSent) }},
		{"last_pong_unix_ms", func() error { return reg.RegisterGauge(component, "last_pong_unix_ms", m.lastPongUnixMs) }},
	}
	for _, r := range registrations {
		if err := r.fn(); err != nil {
			return nil, fmt.Errorf("register %s: %w", r.name, err)
		}
	}

	return m, nil
}
