package session

import (
	"github.com/c360/sensorlink/protocol"
)

// Reading is one sensor sample as the controller tracks it. Classified
// readings carry the service's verdict; raw readings carry only the voltage.
// Numeric fields from the service are carried verbatim; the controller adds
// only ReceivedAt for freshness bookkeeping.
type Reading struct {
	Voltage      float64
	Timestamp    int64 // sample time, Unix ms
	ReceivedAt   int64 // local arrival time, Unix ms
	Classified   bool
	IsAnomaly    bool
	AnomalyScore float64
	Confidence   float64
	Method       protocol.Method
}

func classifiedReading(p protocol.ClassifiedData, receivedAt int64) Reading {
	return Reading{
		Voltage:      p.Voltage,
		Timestamp:    p.Timestamp.Ms(),
		ReceivedAt:   receivedAt,
		Classified:   true,
		IsAnomaly:    p.Prediction.IsAnomaly,
		AnomalyScore: p.Prediction.Score(),
		Confidence:   p.Prediction.Confidence,
		Method:       protocol.ParseMethod(p.Prediction.Method),
	}
}

func rawReading(p protocol.RawData, receivedAt int64) Reading {
	return Reading{
		Voltage:    p.Voltage,
		Timestamp:  p.Timestamp.Ms(),
		ReceivedAt: receivedAt,
	}
}
