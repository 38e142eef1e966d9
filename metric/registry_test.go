package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_messages_total",
		Help: "Test counter",
	})

	require.NoError(t, registry.RegisterCounter("supervisor", "messages", counter))
}

func TestRegisterDuplicateRejected(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_connection_state",
		Help: "Test gauge",
	})

	require.NoError(t, registry.RegisterGauge("supervisor", "state", gauge))

	err := registry.RegisterGauge("supervisor", "state", gauge)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate metric registration")
}

func TestUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_captures_total",
		Help: "Test counter",
	})

	require.NoError(t, registry.RegisterCounter("collector", "captures", counter))
	assert.True(t, registry.Unregister("collector", "captures"))
	assert.False(t, registry.Unregister("collector", "captures"))

	// Re-registration succeeds after unregister.
	require.NoError(t, registry.RegisterCounter("collector", "captures", counter))
}

func TestIsolatedRegistries(t *testing.T) {
	a := NewMetricsRegistry()
	b := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_shared_name_total",
		Help: "Test counter",
	})

	require.NoError(t, a.RegisterCounter("x", "shared", counter))
	require.NoError(t, b.RegisterCounter("x", "shared", counter))
}
