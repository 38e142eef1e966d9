// Package timestamp provides standardized Unix timestamp handling utilities.
//
// This package uses int64 milliseconds as the canonical timestamp format so
// that every freshness comparison in the codebase runs on the same unit.
// All timestamps are milliseconds since Unix epoch (UTC).
//
// Zero Value Semantics:
//   - A timestamp value of 0 means "not set" or "unknown"
//   - Functions handle zero values gracefully, returning appropriate defaults
package timestamp

import "time"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time.
// Returns zero time if the timestamp is 0.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// CoerceThreshold separates second-precision from millisecond-precision
// epochs. Values below it cannot be millisecond timestamps for any date
// after 2001, so they are treated as seconds. Every normalizer in the
// codebase splits on this constant so the two units can never disagree.
const CoerceThreshold = int64(1) << 40

// Coerce normalizes an epoch value of unknown precision to milliseconds.
// The hardware bridge reports seconds while the detection service reports
// milliseconds; both end up in the same Reading fields.
func Coerce(epoch int64) int64 {
	if epoch <= 0 {
		return 0
	}
	if epoch < CoerceThreshold {
		return epoch * 1000
	}
	return epoch
}

// Age returns how far in the past ms lies relative to now, in milliseconds.
// A future timestamp yields a negative age. Returns 0 for unset timestamps.
func Age(ms int64, now int64) int64 {
	if ms == 0 {
		return 0
	}
	return now - ms
}

// Within reports whether ms is within window milliseconds of now, in either
// direction. Unset timestamps are never within any window.
func Within(ms int64, now int64, window int64) bool {
	if ms == 0 {
		return false
	}
	age := now - ms
	if age < 0 {
		age = -age
	}
	return age <= window
}
