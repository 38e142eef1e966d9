// Package buffer provides a generic, thread-safe circular buffer with
// configurable overflow policies.
//
// The session controller uses it as the rolling display buffer of recent
// readings (DropOldest) and the sample collector uses it to accumulate a
// capture window (DropNewest, so a window never exceeds its target length).
// Statistics are always collected for observability.
//
// A blocking overflow policy is deliberately absent: the system's
// concurrency model is cooperative and single-consumer, and a producer that
// parks on a full buffer would stall message dispatch.
package buffer
