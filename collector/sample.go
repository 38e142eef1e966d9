package collector

import (
	"fmt"

	"github.com/c360/sensorlink/signal"
)

// SampleMetadata describes the circumstances of one capture.
type SampleMetadata struct {
	Material     string  `json:"material"`
	QualityScore float64 `json:"quality_score"`
	DeviceID     string  `json:"device_id,omitempty"`
	Location     string  `json:"location,omitempty"`
}

// TrainingSample is one labeled signal window ready for supervised
// training. The ID is a label+material+timestamp composite, unique enough
// for a sample log keyed by capture time. Features holds the calibrated
// feature vector of the captured window.
type TrainingSample struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Timestamp int64           `json:"timestamp"`
	Signal    []float64       `json:"signal"`
	Features  signal.Features `json:"features"`
	Metadata  SampleMetadata  `json:"metadata"`
}

func sampleID(label, material string, ts int64) string {
	return fmt.Sprintf("%s_%s_%d", label, material, ts)
}

// ValidateSignal is the capture quality gate: empty windows and windows
// where every value is exactly zero are rejected. A dead feed produces
// exact zeros; any live hardware produces at least measurement noise.
func ValidateSignal(sig []float64) bool {
	if len(sig) == 0 {
		return false
	}
	for _, v := range sig {
		if v != 0 {
			return true
		}
	}
	return false
}

// QualityScore rates a captured window in [0,1] as the average of two
// normalized components: variance scaled by 1/10 and peak-to-peak range
// scaled by 1/5, each clamped to [0,1].
func QualityScore(sig []float64) float64 {
	if len(sig) == 0 {
		return 0
	}
	stats := signal.Stats(sig)
	variance := stats.Std * stats.Std
	spread := stats.Max - stats.Min
	return (clamp01(variance/10) + clamp01(spread/5)) / 2
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
