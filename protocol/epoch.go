package protocol

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/c360/sensorlink/pkg/timestamp"
)

// Epoch is a wire timestamp normalized to Unix milliseconds. The service is
// not consistent about precision or encoding: the bridge loop reports float
// seconds, classified readings carry an RFC3339 string, and status frames
// use float seconds again. Epoch absorbs all three shapes on unmarshal.
type Epoch int64

// UnmarshalJSON accepts a number (seconds or milliseconds) or an RFC3339
// string. Unparseable values decode to 0 (unset), not an error, so one odd
// timestamp does not reject an otherwise valid message.
func (e *Epoch) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		if f <= 0 {
			*e = 0
			return nil
		}
		if f < float64(timestamp.CoerceThreshold) {
			// Seconds, possibly fractional.
			*e = Epoch(f * 1000)
			return nil
		}
		*e = Epoch(f)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			*e = Epoch(timestamp.ToUnixMs(t))
			return nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			*e = Epoch(timestamp.Coerce(n))
			return nil
		}
	}

	*e = 0
	return nil
}

// MarshalJSON encodes the epoch as integer milliseconds.
func (e Epoch) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(e))
}

// Ms returns the epoch as int64 milliseconds.
func (e Epoch) Ms() int64 {
	return int64(e)
}
