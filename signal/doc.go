// Package signal computes numeric features from windowed sensor readings.
//
// The feature set feeding classification is deliberately small: RMS for
// amplitude, spectral centroid for the energy distribution, and peak
// frequency for the dominant component. All three are pure functions of the
// input window, the sample rate, and the calibration offset; repeated calls
// over the same input return identical values.
//
// Calibration analysis is a one-shot pass over a captured signal, not a
// streaming computation.
package signal
