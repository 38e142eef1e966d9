package signal

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Features is the numeric summary of one signal window, the input to
// classification. Immutable once computed.
type Features struct {
	RMS              float64 `json:"rms"`
	SpectralCentroid float64 `json:"spectral_centroid"`
	PeakFrequency    float64 `json:"peak_frequency"`
}

// WindowStats are the rolling statistics the display pipeline shows
// alongside the spectral features.
type WindowStats struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Extract computes the feature vector for a reading window under the given
// calibration offset. An empty window yields zero features.
func Extract(readings []float64, sampleRateHz int, offset float64) Features {
	n := len(readings)
	if n == 0 || sampleRateHz <= 0 {
		return Features{}
	}

	adjusted := make([]float64, n)
	var sumSquares float64
	for i, x := range readings {
		a := x - offset
		adjusted[i] = a
		sumSquares += a * a
	}
	rms := math.Sqrt(sumSquares / float64(n))

	mags := magnitudeSpectrum(adjusted)

	// Centroid denominator floored at 1 so a silent window divides cleanly.
	var weighted, total float64
	peakIdx := 0
	peakMag := math.Inf(-1)
	for i, m := range mags {
		f := float64(i) * float64(sampleRateHz) / float64(n)
		weighted += f * m
		total += m
		if m > peakMag {
			peakMag = m
			peakIdx = i
		}
	}

	return Features{
		RMS:              rms,
		SpectralCentroid: weighted / math.Max(total, 1),
		PeakFrequency:    float64(peakIdx) * float64(sampleRateHz) / float64(n),
	}
}

// Stats computes the windowed statistics for display. Std is the population
// standard deviation, matching what the service reports in raw-data frames.
func Stats(readings []float64) WindowStats {
	n := len(readings)
	if n == 0 {
		return WindowStats{}
	}

	minV := readings[0]
	maxV := readings[0]
	var sum float64
	for _, x := range readings {
		sum += x
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	mean := sum / float64(n)

	var ss float64
	for _, x := range readings {
		d := x - mean
		ss += d * d
	}

	return WindowStats{
		Mean:  mean,
		Std:   math.Sqrt(ss / float64(n)),
		Min:   minV,
		Max:   maxV,
		Count: n,
	}
}

// magnitudeSpectrum returns |FFT(x)| over all n bins.
func magnitudeSpectrum(x []float64) []float64 {
	n := len(x)
	seq := make([]complex128, n)
	for i, v := range x {
		seq[i] = complex(v, 0)
	}

	fft := fourier.NewCmplxFFT(n)
	coeffs := fft.Coefficients(nil, seq)

	mags := make([]float64, n)
	for i, c := range coeffs {
		mags[i] = cmplxAbs(c)
	}
	return mags
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
