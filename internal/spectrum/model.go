// Package spectrum computes time-frequency representations of station
// waveforms.
package spectrum

import "gonum.org/v1/gonum/mat"

// TFR is a short-time Fourier transform of a single channel. Matrices are
// laid out frequency x time.
type TFR struct {
	Magnitude   *mat.Dense // |X| per frequency bin and segment
	Bits        *mat.Dense // log2 of the power, log2(|X|^2 + eps)
	TimeS       []float64  // segment centres, seconds from the first sample
	FrequencyHz []float64  // bin centres in Hz
}

// Dims returns the number of frequency bins and time segments.
func (t *TFR) Dims() (int, int) {
	return len(t.FrequencyHz), len(t.TimeS)
}
