// Package errors provides standardized error handling for sensorlink
// components. It includes error classification, sentinel error variables for
// the session and capture lifecycle, and helper functions for consistent
// error wrapping across the system.
//
// Classification drives handling policy: transient errors are retried within
// their component's bound, invalid errors are dropped or returned to the
// caller, and fatal errors stop the operation that produced them. Transport
// and protocol errors never propagate past the connection supervisor; they
// are reflected as state transitions only.
package errors
