package mesh

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/roman-kulish/redpandas/internal/frame"
	"github.com/roman-kulish/redpandas/internal/spectrum"
)

const (
	defaultWidth       = 1200
	defaultStripHeight = 96
	defaultStripGap    = 6
	defaultFontSize    = 10.0

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 170
	defaultBottomBorder = 60
	defaultRightBorder  = 20
)

// ErrNoMeshData indicates that no row holds data for the requested panels.
var ErrNoMeshData = errors.New("no mesh data")

// BorderConfig defines the sizes of white space around the meshes
type BorderConfig struct {
	Top    int // Space for the title
	Left   int // Space for station labels
	Bottom int // Space for time scale and information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for mesh rendering
type RenderConfig struct {
	Title        string
	Width        int        // Width of the mesh area in pixels
	StripHeight  int        // Height of a single channel strip in pixels
	LogFrequency bool       // Logarithmic frequency axis
	FontSize     float64    // Font size in points
	ColorTheme   ColorTheme // Color scheme for mesh values
	ColorMapSize int        // Number of colors in gradient (0 for default)
	MinRange     float64    // Smallest colour range in bits (0 for default)
	Bounds       *Bounds    // Fixed colour range, computed from the data when nil

	BorderConfig BorderConfig
}

// Panel selects the mesh columns of one sensor
type Panel struct {
	Label     string // sensor label drawn next to the station id
	Bits      string
	Time      string
	Frequency string
}

// PanelFor returns the panel of the TFR columns written for a sensor.
func PanelFor(sensorLabel string) Panel {
	return Panel{
		Label:     sensorLabel,
		Bits:      spectrum.BitsLabel(sensorLabel),
		Time:      spectrum.TimeLabel(sensorLabel),
		Frequency: spectrum.FrequencyLabel(sensorLabel),
	}
}

// strip is a single channel mesh drawn as one horizontal band
type strip struct {
	station   string
	label     string
	bits      *mat.Dense
	timeS     []float64
	frequency []float64
}

// Renderer draws stacked mesh strips of stations and sensors
type Renderer struct {
	config RenderConfig
}

// NewRenderer creates a renderer, filling defaults for zero values.
func NewRenderer(config RenderConfig) (*Renderer, error) {
	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.StripHeight == 0 {
		config.StripHeight = defaultStripHeight
	}
	if config.FontSize == 0 {
		config.FontSize = defaultFontSize
	}
	if config.ColorTheme == "" {
		config.ColorTheme = DefaultTheme
	}
	if config.MinRange == 0 {
		config.MinRange = DefaultMinRange
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}
	if config.Width < 16 || config.StripHeight < 4 {
		return nil, fmt.Errorf("mesh area too small: %dx%d", config.Width, config.StripHeight)
	}
	return &Renderer{config: config}, nil
}

// Render draws one strip per station, panel and channel. Stations appear in
// row order and are labelled with the values of sigIDLabel.
func (r *Renderer) Render(f *frame.Frame, sigIDLabel string, panels []Panel) (*image.RGBA, error) {
	bitsLabels := make([]string, len(panels))
	for i, p := range panels {
		bitsLabels[i] = p.Bits
	}
	stations, err := FindYLabelTFR(f, bitsLabels, sigIDLabel)
	if err != nil {
		return nil, err
	}

	strips, err := collectStrips(f, sigIDLabel, panels)
	if err != nil {
		return nil, err
	}
	if len(strips) == 0 {
		return nil, ErrNoMeshData
	}

	bounds := r.bounds(strips)
	cm := NewColorMapperWithSize(r.config.ColorTheme, bounds, r.config.ColorMapSize)

	tMin, tMax := timeRange(strips)
	fMin, fMax := frequencyRange(strips)

	borders := r.config.BorderConfig
	height := len(strips)*(r.config.StripHeight+defaultStripGap) - defaultStripGap
	img := image.NewRGBA(image.Rect(0, 0,
		r.config.Width+borders.Left+borders.Right,
		height+borders.Top+borders.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	areas := make([]image.Rectangle, len(strips))
	for i, s := range strips {
		top := borders.Top + i*(r.config.StripHeight+defaultStripGap)
		areas[i] = image.Rect(borders.Left, top, borders.Left+r.config.Width, top+r.config.StripHeight)
		r.renderStrip(img, areas[i], s, cm, tMin, tMax)
	}

	ann, err := newAnnotator(annotatorConfig{FontSize: r.config.FontSize, Borders: borders})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	info := meshInfo{
		title:    r.config.Title,
		stations: stations,
		strips:   strips,
		areas:    areas,
		tMin:     tMin,
		tMax:     tMax,
		fMin:     fMin,
		fMax:     fMax,
		bounds:   bounds,
	}
	if err = ann.annotate(img, &info); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}
	return img, nil
}

func (r *Renderer) bounds(strips []strip) Bounds {
	if r.config.Bounds != nil {
		return *r.config.Bounds
	}
	h := NewHistogram()
	for _, s := range strips {
		h.UpdateMatrix(s.bits)
	}
	return h.PercentileBounds(r.config.MinRange)
}

// renderStrip draws a mesh with the lowest frequency at the bottom.
func (r *Renderer) renderStrip(img *image.RGBA, area image.Rectangle, s strip, cm *ColorMapper, tMin, tMax float64) {
	w, h := area.Dx(), area.Dy()
	bins, segments := s.bits.Dims()

	rows := make([]int, h)
	for y := range rows {
		rows[y] = r.frequencyIndex(s.frequency, float64(h-1-y)/float64(max(h-1, 1)))
	}

	for x := 0; x < w; x++ {
		t := tMin + (tMax-tMin)*float64(x)/float64(max(w-1, 1))
		col := nearestIndex(s.timeS, t)
		if col < 0 || col >= segments {
			continue
		}
		for y, bin := range rows {
			if bin < 0 || bin >= bins {
				continue
			}
			img.Set(area.Min.X+x, area.Min.Y+y, cm.Color(s.bits.At(bin, col)))
		}
	}
}

// frequencyIndex maps a relative position in [0, 1] to a frequency bin.
func (r *Renderer) frequencyIndex(freqs []float64, pos float64) int {
	if len(freqs) < 2 {
		return 0
	}
	if !r.config.LogFrequency || freqs[1] <= 0 {
		return int(math.Round(pos * float64(len(freqs)-1)))
	}
	lo, hi := math.Log(freqs[1]), math.Log(freqs[len(freqs)-1])
	return nearestIndex(freqs, math.Exp(lo+pos*(hi-lo)))
}

// nearestIndex returns the index of the sorted axis value closest to v, or
// -1 when v lies outside the axis by more than half a step.
func nearestIndex(axis []float64, v float64) int {
	n := len(axis)
	if n == 0 {
		return -1
	}
	if n == 1 {
		return 0
	}
	half := (axis[1] - axis[0]) / 2
	if v < axis[0]-half || v > axis[n-1]+half {
		return -1
	}

	i := sort.SearchFloat64s(axis, v)
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	case v-axis[i-1] <= axis[i]-v:
		return i - 1
	default:
		return i
	}
}

func collectStrips(f *frame.Frame, sigIDLabel string, panels []Panel) ([]strip, error) {
	var strips []strip
	for row := 0; row < f.Len(); row++ {
		id, err := f.String(row, sigIDLabel)
		if err != nil {
			return nil, err
		}

		for _, p := range panels {
			if !f.HasColumn(p.Bits) {
				continue
			}
			v, err := f.Get(row, p.Bits)
			if err != nil {
				return nil, err
			}
			if frame.IsEmpty(v) {
				continue
			}

			bits, err := f.Meshes(row, p.Bits)
			if err != nil {
				return nil, err
			}
			times, err := f.Axes(row, p.Time)
			if err != nil {
				return nil, err
			}
			freqs, err := f.Axes(row, p.Frequency)
			if err != nil {
				return nil, err
			}
			if len(times) != len(bits) || len(freqs) != len(bits) {
				return nil, fmt.Errorf("station %s, %s: %d meshes, %d time and %d frequency axes",
					id, p.Label, len(bits), len(times), len(freqs))
			}

			for ch, b := range bits {
				r, c := b.Dims()
				if r != len(freqs[ch]) || c != len(times[ch]) {
					return nil, fmt.Errorf("station %s, %s channel %d: mesh %dx%d does not match axes %dx%d",
						id, p.Label, ch, r, c, len(freqs[ch]), len(times[ch]))
				}
				label := p.Label
				if len(bits) > 1 {
					label = fmt.Sprintf("%s %d", p.Label, ch)
				}
				strips = append(strips, strip{
					station:   id,
					label:     label,
					bits:      b,
					timeS:     times[ch],
					frequency: freqs[ch],
				})
			}
		}
	}
	return strips, nil
}

func timeRange(strips []strip) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range strips {
		if len(s.timeS) == 0 {
			continue
		}
		lo = math.Min(lo, s.timeS[0])
		hi = math.Max(hi, s.timeS[len(s.timeS)-1])
	}
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func frequencyRange(strips []strip) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range strips {
		if len(s.frequency) == 0 {
			continue
		}
		lo = math.Min(lo, s.frequency[0])
		hi = math.Max(hi, s.frequency[len(s.frequency)-1])
	}
	return lo, hi
}
