package spectrum

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinSegment is the shortest FFT segment.
	MinSegment = 8

	// DefaultBandOrder splits a signal into this many segments at least.
	DefaultBandOrder = 3

	eps = 1e-32
)

// ErrSignalTooShort is returned when a signal cannot fill one segment.
var ErrSignalTooShort = errors.New("signal too short")

// SegmentLength returns the largest power of two not above n/bandOrder,
// never less than MinSegment.
func SegmentLength(n, bandOrder int) int {
	if bandOrder < 1 {
		bandOrder = 1
	}
	target := n / bandOrder
	size := MinSegment
	for size*2 <= target {
		size *= 2
	}
	return size
}

// STFT computes the short-time Fourier transform of sig with a Hann window
// and 50% overlap. The mean is removed before windowing.
func STFT(sig []float64, sampleRateHz float64, bandOrder int) (*TFR, error) {
	if sampleRateHz <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %v", sampleRateHz)
	}
	nfft := SegmentLength(len(sig), bandOrder)
	if len(sig) < nfft {
		return nil, fmt.Errorf("%w: %d samples, need %d", ErrSignalTooShort, len(sig), nfft)
	}

	hop := nfft / 2
	segments := 1 + (len(sig)-nfft)/hop
	bins := nfft/2 + 1

	x := make([]float64, len(sig))
	copy(x, sig)
	floats.AddConst(-stat.Mean(x, nil), x)

	window := hann(nfft)
	fft := fourier.NewFFT(nfft)

	tfr := &TFR{
		Magnitude:   mat.NewDense(bins, segments, nil),
		Bits:        mat.NewDense(bins, segments, nil),
		TimeS:       make([]float64, segments),
		FrequencyHz: make([]float64, bins),
	}
	for i := range tfr.FrequencyHz {
		tfr.FrequencyHz[i] = fft.Freq(i) * sampleRateHz
	}

	seg := make([]float64, nfft)
	coeff := make([]complex128, bins)
	for k := 0; k < segments; k++ {
		start := k * hop
		floats.MulTo(seg, x[start:start+nfft], window)
		coeff = fft.Coefficients(coeff, seg)

		for i, c := range coeff {
			m := math.Hypot(real(c), imag(c))
			tfr.Magnitude.Set(i, k, m)
			tfr.Bits.Set(i, k, math.Log2(m*m+eps))
		}
		tfr.TimeS[k] = (float64(start) + float64(nfft)/2) / sampleRateHz
	}
	return tfr, nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
