// Package retry provides bounded retry loops with fixed or multiplicative
// delay between attempts.
//
// The capture and reconnection policies in this system are deliberately
// simple: a hard attempt cap and a fixed inter-attempt delay. Config still
// supports a backoff multiplier for callers that want growth, but the
// project defaults keep Multiplier at 1.0.
package retry
