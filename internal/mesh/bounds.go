package mesh

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// below this count the exact extremes are used instead of percentiles
	minimumSampleCount = 20

	// DefaultMinRange is the smallest colour range in bits
	DefaultMinRange = 12.0
)

// Bounds is the value range mapped onto a colour theme
type Bounds struct {
	Min  float64 // 5th percentile
	Max  float64 // 95th percentile
	Mean float64
}

// Histogram collects mesh values in one-bit bins
type Histogram struct {
	bins       map[int]uint64
	totalCount uint64
	sum        float64
	minBin     int
	maxBin     int
}

// NewHistogram creates an empty histogram.
func NewHistogram() *Histogram {
	return &Histogram{
		bins:   make(map[int]uint64),
		minBin: math.MaxInt32,
		maxBin: math.MinInt32,
	}
}

// Update adds a value. Values that are not finite are ignored.
func (h *Histogram) Update(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}

	bin := int(math.Floor(v))
	h.bins[bin]++
	h.totalCount++
	h.sum += v

	h.minBin = min(h.minBin, bin)
	h.maxBin = max(h.maxBin, bin)
}

// UpdateMatrix adds every element of m.
func (h *Histogram) UpdateMatrix(m mat.Matrix) {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			h.Update(m.At(i, j))
		}
	}
}

// Count returns the number of values added.
func (h *Histogram) Count() uint64 {
	return h.totalCount
}

// Clear resets the histogram
func (h *Histogram) Clear() {
	h.bins = make(map[int]uint64)
	h.totalCount = 0
	h.sum = 0
	h.minBin = math.MaxInt32
	h.maxBin = math.MinInt32
}

// PercentileBounds returns the 5th and 95th percentile bins widened to at
// least minRange, with a 10% margin on both sides.
func (h *Histogram) PercentileBounds(minRange float64) Bounds {
	if h.totalCount == 0 {
		return Bounds{Min: -minRange / 2, Max: minRange / 2}
	}

	lo, hi := float64(h.minBin), float64(h.maxBin+1)
	if h.totalCount >= minimumSampleCount {
		target := h.totalCount * 5 / 100

		var count uint64
		for bin := h.minBin; bin <= h.maxBin; bin++ {
			count += h.bins[bin]
			if count >= target {
				lo = float64(bin)
				break
			}
		}

		count = 0
		for bin := h.maxBin; bin >= h.minBin; bin-- {
			count += h.bins[bin]
			if count >= target {
				hi = float64(bin + 1)
				break
			}
		}
	}

	if hi-lo < minRange {
		center := (hi + lo) / 2
		lo, hi = center-minRange/2, center+minRange/2
	}

	margin := (hi - lo) / 10
	return Bounds{
		Min:  lo - margin,
		Max:  hi + margin,
		Mean: h.sum / float64(h.totalCount),
	}
}
