// Package session implements the detection session controller.
//
// The controller owns no independent truth. Every field of its State is
// derived from inbound messages: hardware link changes, detection lifecycle
// transitions, collection toggles, model selections, and full status
// snapshots that overwrite the derived fields atomically. Commands are
// fire-and-forget emissions over the transport; the corresponding state
// change lands later, when the service acknowledges.
//
// The controller also owns the live raw-reading feed. The feed is a
// single-consumer slot: exactly one subscriber receives readings at a time,
// and a new subscription shadows the previous one until it is cancelled.
// The sample collector uses this to borrow the feed for the duration of a
// capture and hand it back afterwards.
package session
