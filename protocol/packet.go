package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/sensorlink/errors"
)

// Packet is one decoded telemetry burst from the hardware bridge.
type Packet struct {
	Timestamp int64     // capture epoch as sent, unit per bridge firmware
	Readings  []float64 // acquisition order
}

// ParsePacket decodes the bridge's line format:
//
//	T:<integer-epoch>,V:<float>[,V:<float>...]
//
// Decoding fails if the leading T: field is missing or malformed, or if any
// V: field fails to parse. Callers treat a decode failure as "drop this
// packet"; it is never fatal.
func ParsePacket(line string) (Packet, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "T:") {
		return Packet{}, errors.WrapInvalid(
			fmt.Errorf("%w: missing T: field", errors.ErrMalformedPacket),
			"protocol", "ParsePacket", "parse timestamp field")
	}

	ts, err := strconv.ParseInt(fields[0][len("T:"):], 10, 64)
	if err != nil {
		return Packet{}, errors.WrapInvalid(
			fmt.Errorf("%w: bad timestamp %q", errors.ErrMalformedPacket, fields[0]),
			"protocol", "ParsePacket", "parse timestamp field")
	}

	readings := make([]float64, 0, len(fields)-1)
	for _, f := range fields[1:] {
		if !strings.HasPrefix(f, "V:") {
			return Packet{}, errors.WrapInvalid(
				fmt.Errorf("%w: unexpected field %q", errors.ErrMalformedPacket, f),
				"protocol", "ParsePacket", "parse reading field")
		}
		v, err := strconv.ParseFloat(f[len("V:"):], 64)
		if err != nil {
			return Packet{}, errors.WrapInvalid(
				fmt.Errorf("%w: bad reading %q", errors.ErrMalformedPacket, f),
				"protocol", "ParsePacket", "parse reading field")
		}
		readings = append(readings, v)
	}

	return Packet{Timestamp: ts, Readings: readings}, nil
}
