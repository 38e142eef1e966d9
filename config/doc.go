// Package config provides the application configuration for sensorlink.
//
// Configuration is a JSON document loaded from disk, with selected fields
// overridable through SENSORLINK_* environment variables. Every load path
// runs Validate before the config is handed to components, so constructors
// can assume well-formed values.
//
// Protocol-bound intervals (reconnect delay, capture window, retry delays)
// are stored as integer milliseconds to keep the on-disk form in the same
// unit the wire protocol uses; accessor methods convert to time.Duration.
package config
