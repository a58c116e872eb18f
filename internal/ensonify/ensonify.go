// Package ensonify turns sensor channels into audible WAV files.
package ensonify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/youpy/go-wav"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/roman-kulish/redpandas/internal/frame"
)

const (
	DefaultWavSampleRateHz = 192000
	DefaultWorkers         = 4

	bitsPerSample = 16
	maxAmplitude  = math.MaxInt16
)

// ErrSensorNameMismatch indicates that the number of sensor names differs
// from the number of channels of the sensor columns.
var ErrSensorNameMismatch = errors.New("sensor names do not match channels")

// Options configures EnsonifySensors
type Options struct {
	SigIDLabel      string   // station id column, frame.StationIDLabel when empty
	SensorColumns   []string // waveform columns, series or channels x samples
	SampleRates     []string // sample rate column of every sensor column
	SensorNames     []string // one per channel across all sensor columns
	WavSampleRateHz float64
	OutputDir       string
	FilenamePrefix  string
	Workers         int
	Logger          *slog.Logger
}

// EnsonifySensors writes one 16-bit mono WAV file per station, sensor and
// channel. Samples are played back at WavSampleRateHz, compressing time by
// the ratio of the WAV rate to the sensor rate. Stations are processed
// concurrently. The written paths are returned in station and channel order.
func EnsonifySensors(ctx context.Context, f *frame.Frame, opts Options) ([]string, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	names, err := channelNames(f, opts.SensorColumns, opts.SensorNames)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	written := make([][]string, f.Len())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for row := 0; row < f.Len(); row++ {
		row := row
		g.Go(func() error {
			paths, err := ensonifyStation(ctx, f, row, names, opts)
			written[row] = paths
			return err
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	var out []string
	for _, paths := range written {
		out = append(out, paths...)
	}
	return out, nil
}

func (o *Options) validate() error {
	if o.SigIDLabel == "" {
		o.SigIDLabel = frame.StationIDLabel
	}
	if o.WavSampleRateHz == 0 {
		o.WavSampleRateHz = DefaultWavSampleRateHz
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch {
	case len(o.SensorColumns) != len(o.SampleRates):
		return fmt.Errorf("%d sensor columns and %d sample rate columns", len(o.SensorColumns), len(o.SampleRates))
	case o.WavSampleRateHz < 1 || o.WavSampleRateHz > math.MaxUint32:
		return fmt.Errorf("invalid wav sample rate: %v", o.WavSampleRateHz)
	case o.OutputDir == "":
		return errors.New("output directory is required")
	}
	return nil
}

// channelNames splits the flat name list per sensor column. The channel count
// of a column is the largest found across stations.
func channelNames(f *frame.Frame, columns, names []string) ([][]string, error) {
	counts := make([]int, len(columns))
	for i, col := range columns {
		if !f.HasColumn(col) {
			return nil, fmt.Errorf("%w: %s", frame.ErrColumnNotFound, col)
		}
		for row := 0; row < f.Len(); row++ {
			v, _ := f.Get(row, col)
			if frame.IsEmpty(v) {
				continue
			}
			chans, err := f.Channels(row, col)
			if err != nil {
				return nil, err
			}
			counts[i] = max(counts[i], len(chans))
		}
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != len(names) {
		return nil, fmt.Errorf("%w: %d names for %d channels", ErrSensorNameMismatch, len(names), total)
	}

	out := make([][]string, len(columns))
	next := 0
	for i, c := range counts {
		out[i] = names[next : next+c]
		next += c
	}
	return out, nil
}

func ensonifyStation(ctx context.Context, f *frame.Frame, row int, names [][]string, opts Options) ([]string, error) {
	id, err := f.String(row, opts.SigIDLabel)
	if err != nil {
		return nil, err
	}

	var paths []string
	for i, col := range opts.SensorColumns {
		v, err := f.Get(row, col)
		if err != nil {
			return nil, err
		}
		if frame.IsEmpty(v) {
			opts.Logger.Debug("no data", slog.String("station", id), slog.String("column", col))
			continue
		}

		chans, err := f.Channels(row, col)
		if err != nil {
			return nil, err
		}
		rate, err := f.Float(row, opts.SampleRates[i])
		if err != nil {
			return nil, err
		}

		for ch, values := range chans {
			if err = ctx.Err(); err != nil {
				return nil, err
			}

			path := filepath.Join(opts.OutputDir, fmt.Sprintf("%s_%s_%s.wav", opts.FilenamePrefix, id, names[i][ch]))
			if err = WriteWav(path, values, uint32(opts.WavSampleRateHz)); err != nil {
				return nil, fmt.Errorf("station %s, %s: %w", id, names[i][ch], err)
			}
			paths = append(paths, path)

			opts.Logger.Info("ensonified",
				slog.String("station", id),
				slog.String("sensor", names[i][ch]),
				slog.Float64("sampleRateHz", rate),
				slog.Float64("speedup", opts.WavSampleRateHz/rate),
				slog.String("file", path))
		}
	}
	return paths, nil
}

// WriteWav writes values normalized to a unit peak as 16-bit mono PCM.
func WriteWav(path string, values []float64, sampleRateHz uint32) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	normalized := Normalize(values)
	samples := make([]wav.Sample, len(normalized))
	for i, v := range normalized {
		samples[i].Values[0] = int(math.Round(v * maxAmplitude))
	}

	w := wav.NewWriter(out, uint32(len(samples)), 1, sampleRateHz, bitsPerSample)
	if err = w.WriteSamples(samples); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	return nil
}

// Normalize scales values to a unit peak. NaN values become zero.
func Normalize(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	if len(out) == 0 {
		return out
	}

	peak := math.Max(math.Abs(floats.Max(out)), math.Abs(floats.Min(out)))
	if peak > 0 {
		floats.Scale(1/peak, out)
	}
	return out
}
