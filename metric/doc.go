// Package metric manages Prometheus metric registration for sensorlink
// components.
//
// Each component creates its metrics in a newMetrics-style constructor and
// registers them against the shared MetricsRegistry under its component
// name. The registry owns a private Prometheus registry so tests can create
// isolated instances without global collector collisions.
package metric
