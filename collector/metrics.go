package collector

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/sensorlink/metric"
)

type collectorMetrics struct {
	captures     *prometheus.CounterVec
	attempts     prometheus.Counter
	qualityScore prometheus.Histogram
}

func newCollectorMetrics(reg metric.MetricsRegistrar, component string) (*collectorMetrics, error) {
	m := &collectorMetrics{
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensorlink_captures_total",
			Help: "Sample captures by outcome",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensorlink_capture_attempts_total",
			Help: "Individual capture attempts, including retries",
		}),
		qualityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sensorlink_sample_quality_score",
			Help:    "Quality score of successfully captured samples",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}

	if reg == nil {
		return m, nil
	}

	registrations := []struct {
		name string
		fn   func() error
	}{
		{"captures_total", func() error { return reg.RegisterCounterVec(component, "captures_total", m.captures) }},
		{"capture_attempts_total", func() error { return reg.RegisterCounter(component, "capture_attempts_total", m.attempts) }},
		{"sample_quality_score", func() error { return reg.RegisterHistogram(component, "sample_quality_score", m.qualityScore) }},
	}
	for _, r := range registrations {
		if err := r.fn(); err != nil {
			return nil, fmt.Errorf("register %s: %w", r.name, err)
		}
	}
	return m, nil
}
