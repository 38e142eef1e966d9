// Package supervisor owns the websocket session with the remote detection
// service.
//
// The supervisor is the only component that touches the transport. It runs
// the connection state machine (disconnected, connecting, connected, error),
// bounded automatic reconnection with a fixed delay, the heartbeat and
// status-poll timers, and type-discriminated dispatch of inbound messages to
// registered handlers.
//
// Inbound messages are read and dispatched by a single goroutine, so
// handlers observe messages strictly in arrival order. Handlers must not
// block; slow work belongs on the handler's own side of a buffer.
//
// Transport errors never escape to callers as errors. They surface as state
// transitions: individual failures retry up to the bound, and an exhausted
// bound parks the supervisor in StateError until Reconnect is called.
package supervisor
