// Package collector captures fixed-duration signal windows as labeled
// training samples.
//
// A capture borrows the session controller's raw-reading feed, accumulates
// voltages until the window target is reached or the window times out, then
// hands the feed back. The borrow is scoped: the previous consumer is
// restored on every exit path, including timeouts and validation failures.
// Captures are serialized by an in-flight guard; a second concurrent call
// fails fast instead of fighting over the feed.
//
// The collector is constructor injected and explicitly owned. Callers hold
// a reference; there is no package-level instance.
package collector
