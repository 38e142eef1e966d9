// Package protocol defines the wire protocol spoken with the remote
// anomaly-detection service and the text packet format produced by the
// hardware bridge.
//
// Every websocket message is an Envelope carrying a type discriminator and a
// raw JSON payload. Decode maps an envelope to exactly one typed payload
// struct; there is one variant per message type, so handler code switches
// over concrete types instead of digging through maps. Unknown types decode
// to an error and are dropped by the caller, never treated as fatal.
package protocol
