package frame

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxCutoffRatio caps the highpass cutoff relative to the sample rate.
const maxCutoffRatio = 0.25

type biquad struct {
	b0, b1, b2, a1, a2 float64
}

// butterworthHighpass returns normalized second-order Butterworth highpass
// coefficients.
func butterworthHighpass(cutoffHz, sampleRateHz float64) biquad {
	w0 := 2 * math.Pi * cutoffHz / sampleRateHz
	cosW := math.Cos(w0)
	alpha := math.Sin(w0) / math.Sqrt2 // Q = 1/sqrt(2)

	a0 := 1 + alpha
	return biquad{
		b0: (1 + cosW) / 2 / a0,
		b1: -(1 + cosW) / a0,
		b2: (1 + cosW) / 2 / a0,
		a1: -2 * cosW / a0,
		a2: (1 - alpha) / a0,
	}
}

func (q biquad) apply(x []float64) {
	var x1, x2, y1, y2 float64
	for i, v := range x {
		y := q.b0*v + q.b1*x1 + q.b2*x2 - q.a1*y1 - q.a2*y2
		x2, x1 = x1, v
		y2, y1 = y1, y
		x[i] = y
	}
}

// Highpass removes the mean of sig and runs a second-order Butterworth
// highpass forward and backward, giving a zero-phase result. Cutoffs above a
// quarter of the sample rate are clipped. NaN and infinite samples are
// replaced with the mean of the finite ones. The input is not modified.
func Highpass(sig []float64, sampleRateHz, cutoffHz float64) []float64 {
	out := make([]float64, len(sig))
	copy(out, sig)
	if len(out) == 0 {
		return out
	}

	mean := fillNonFinite(out)
	floats.AddConst(-mean, out)
	if cutoffHz <= 0 || sampleRateHz <= 0 || len(out) < 3 {
		return out
	}

	cutoffHz = math.Min(cutoffHz, sampleRateHz*maxCutoffRatio)
	q := butterworthHighpass(cutoffHz, sampleRateHz)

	q.apply(out)
	floats.Reverse(out)
	q.apply(out)
	floats.Reverse(out)
	return out
}

// fillNonFinite replaces NaN and infinite values with the mean of the finite
// values, zero when there are none, and returns that mean.
func fillNonFinite(x []float64) float64 {
	finite := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}

	var mean float64
	if len(finite) > 0 {
		mean = stat.Mean(finite, nil)
	}
	if len(finite) == len(x) {
		return mean
	}
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			x[i] = mean
		}
	}
	return mean
}
