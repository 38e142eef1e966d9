// Package sensorlink is a client-side session manager for a remote anomaly
// detection service fed by a hardware signal bridge.
//
// The process holds one websocket session to the detection service,
// supervises it through disconnects, derives the detection session state
// from the message stream, turns raw telemetry into calibrated signal
// features, and captures quality-gated training samples from the live feed.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│       Connection Supervisor         │  state machine, bounded
//	│  (dial, retry, heartbeat, dispatch) │  reconnect, typed routing
//	└──────────────────┬──────────────────┘
//	                   │ decoded messages, arrival order
//	┌──────────────────┴──────────────────┐
//	│        Session Controller           │  derived SessionState,
//	│ (commands, freshness gate, reports) │  display buffer, raw feed
//	└──────────────────┬──────────────────┘
//	                   │ single-consumer raw feed
//	┌──────────────────┴──────────────────┐
//	│         Sample Collector            │  scoped feed borrow,
//	│  (capture, validate, quality score) │  retry/timeout, batches
//	└─────────────────────────────────────┘
//
// The supervisor is the only component touching the transport. Inbound
// messages are decoded into one typed struct per wire type and dispatched
// in strict arrival order; the controller derives all of its state from
// them and never holds optimistic local truth. The collector borrows the
// controller's raw feed for the duration of one capture and always hands
// it back.
//
// # Packages
//
// Core:
//   - supervisor: websocket connection supervisor
//   - session: session/detection controller and the raw-reading feed
//   - collector: training-sample capture
//   - protocol: message envelope, typed payloads, telemetry packet codec
//   - signal: feature extraction and calibration analysis
//
// Infrastructure:
//   - component: lifecycle and health contracts
//   - config: JSON configuration with env overrides
//   - errors: classified errors and domain sentinels
//   - metric: Prometheus registry wrapper and scrape endpoint
//   - pkg/buffer: generic circular buffer
//   - pkg/retry: bounded fixed-delay retry
//   - pkg/timestamp: Unix-millisecond timestamps
//
// # Binary
//
// cmd/sensorlink wires the components together:
//
//	sensorlink -config config.json
//	sensorlink -config config.json -log-format json -device-id bench-01
//	sensorlink -validate -config config.json
//
// SENSORLINK_ENDPOINT_URL, SENSORLINK_LOG_LEVEL, SENSORLINK_METRICS_PORT,
// and SENSORLINK_CALIBRATION_OFFSET override the corresponding config
// fields for deployment environments.
package sensorlink
