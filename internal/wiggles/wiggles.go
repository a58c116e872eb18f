// Package wiggles plots normalized sensor time series stacked on a shared
// time axis.
package wiggles

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/image/colornames"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/roman-kulish/redpandas/internal/frame"
)

const (
	DefaultColor = "midnightblue"

	// amplitude of a normalized wiggle relative to the channel spacing
	wiggleScale = 0.45

	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

// ErrSensorNameMismatch indicates that the number of sensor names differs
// from the number of plotted channels.
var ErrSensorNameMismatch = errors.New("sensor names do not match channels")

// Sensor selects the waveform and epoch columns of one sensor
type Sensor struct {
	Wf    string // waveform column, series or channels x samples
	Epoch string // epoch seconds column
}

// Options configures PlotSensorWiggles
type Options struct {
	StationIDLabel string   // defaults to frame.StationIDLabel
	StationID      string   // row to plot
	Sensors        []Sensor // plotted bottom to top
	SensorNames    []string // one per channel, in plotting order
	Title          string
	Color          string // name from colornames, DefaultColor when empty
}

// PlotSensorWiggles draws every channel of the selected sensors for one
// station. Channels are normalized to a unit peak and offset vertically,
// time is measured from the earliest sample.
func PlotSensorWiggles(f *frame.Frame, opts Options) (*plot.Plot, error) {
	if opts.StationIDLabel == "" {
		opts.StationIDLabel = frame.StationIDLabel
	}
	if opts.Color == "" {
		opts.Color = DefaultColor
	}
	lineColor, ok := colornames.Map[opts.Color]
	if !ok {
		return nil, fmt.Errorf("unknown color: %s", opts.Color)
	}

	row, err := f.RowByValue(opts.StationIDLabel, opts.StationID)
	if err != nil {
		return nil, err
	}

	traces, err := collectTraces(f, row, opts.Sensors)
	if err != nil {
		return nil, err
	}
	if len(traces) == 0 {
		return nil, fmt.Errorf("station %s: no sensor data", opts.StationID)
	}
	if len(opts.SensorNames) != len(traces) {
		return nil, fmt.Errorf("%w: %d names for %d channels", ErrSensorNameMismatch, len(opts.SensorNames), len(traces))
	}

	start := math.Inf(1)
	for _, t := range traces {
		start = math.Min(start, t.epoch[0])
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = fmt.Sprintf("Time (s) from %.3f", start)
	p.BackgroundColor = colornames.White

	ticks := make([]plot.Tick, len(traces))
	for i, t := range traces {
		xys := make(plotter.XYs, len(t.values))
		for j, v := range normalize(t.values) {
			xys[j].X = t.epoch[j] - start
			xys[j].Y = float64(i) + v*wiggleScale
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", opts.SensorNames[i], err)
		}
		line.Color = lineColor
		line.Width = vg.Points(0.5)
		p.Add(line)

		ticks[i] = plot.Tick{Value: float64(i), Label: opts.SensorNames[i]}
	}

	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Min = -1
	p.Y.Max = float64(len(traces))
	return p, nil
}

// Save writes the plot to path; the format follows the file extension.
func Save(p *plot.Plot, path string, width, height vg.Length) error {
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("saving plot %s: %w", path, err)
	}
	return nil
}

type trace struct {
	epoch  []float64
	values []float64
}

func collectTraces(f *frame.Frame, row int, sensors []Sensor) ([]trace, error) {
	var traces []trace
	for _, s := range sensors {
		v, err := f.Get(row, s.Wf)
		if err != nil {
			return nil, err
		}
		if frame.IsEmpty(v) {
			continue
		}

		channels, err := f.Channels(row, s.Wf)
		if err != nil {
			return nil, err
		}
		epoch, err := f.Series(row, s.Epoch)
		if err != nil {
			return nil, err
		}
		for i, ch := range channels {
			if len(ch) != len(epoch) || len(ch) == 0 {
				return nil, fmt.Errorf("%s channel %d: %d samples, %d timestamps", s.Wf, i, len(ch), len(epoch))
			}
			traces = append(traces, trace{epoch: epoch, values: ch})
		}
	}
	return traces, nil
}

// normalize removes the mean and scales to a unit peak.
func normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	floats.AddConst(-stat.Mean(out, nil), out)

	peak := math.Max(math.Abs(floats.Max(out)), math.Abs(floats.Min(out)))
	if peak > 0 {
		floats.Scale(1/peak, out)
	}
	return out
}
