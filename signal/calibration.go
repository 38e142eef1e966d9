package signal

import (
	"math"
	"sort"
)

// Calibration is the result of a one-shot calibration capture.
type Calibration struct {
	DominantFrequencies []float64 `json:"dominant_frequencies"` // top 3, strongest first
	NoiseFloor          float64   `json:"noise_floor"`
	Sensitivity         float64   `json:"sensitivity"`
}

// Noise-floor band. Bins below 10 carry the DC component and the
// low-frequency energy concentration; bins above 50 add nothing on the
// observed hardware.
const (
	noiseFloorLowBin  = 10
	noiseFloorHighBin = 50
)

// Analyze derives calibration parameters from a captured signal:
// the top 3 dominant frequencies from the positive half of the spectrum,
// the mean magnitude over the mid-band as noise floor, and peak amplitude
// over RMS of the raw signal as sensitivity.
func Analyze(captured []float64, sampleRateHz int) Calibration {
	n := len(captured)
	if n == 0 || sampleRateHz <= 0 {
		return Calibration{}
	}

	mags := magnitudeSpectrum(captured)
	half := n / 2

	type bin struct {
		index int
		mag   float64
	}
	bins := make([]bin, 0, half)
	for i := 0; i < half; i++ {
		bins = append(bins, bin{index: i, mag: mags[i]})
	}
	sort.Slice(bins, func(a, b int) bool {
		if bins[a].mag != bins[b].mag {
			return bins[a].mag > bins[b].mag
		}
		return bins[a].index < bins[b].index
	})

	dominant := make([]float64, 0, 3)
	for i := 0; i < len(bins) && i < 3; i++ {
		dominant = append(dominant, float64(bins[i].index)*float64(sampleRateHz)/float64(n))
	}

	var noiseFloor float64
	if half > noiseFloorLowBin {
		high := noiseFloorHighBin
		if high > half {
			high = half
		}
		var sum float64
		for i := noiseFloorLowBin; i < high; i++ {
			sum += mags[i]
		}
		noiseFloor = sum / float64(high-noiseFloorLowBin)
	}

	var peak, sumSquares float64
	for _, x := range captured {
		if a := math.Abs(x); a > peak {
			peak = a
		}
		sumSquares += x * x
	}
	rms := math.Sqrt(sumSquares / float64(n))

	var sensitivity float64
	if rms > 0 {
		sensitivity = peak / rms
	}

	return Calibration{
		DominantFrequencies: dominant,
		NoiseFloor:          noiseFloor,
		Sensitivity:         sensitivity,
	}
}
