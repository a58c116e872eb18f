package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/roman-kulish/redpandas/internal/config"
	"github.com/roman-kulish/redpandas/internal/frame"
	"github.com/roman-kulish/redpandas/internal/redvox"
	"github.com/roman-kulish/redpandas/internal/report"
	"github.com/roman-kulish/redpandas/internal/spectrum"
	"github.com/roman-kulish/redpandas/internal/storage"
)

// sensorColumns names the frame columns of one sensor
type sensorColumns struct {
	sensor     redvox.SensorType
	wf         string
	sampleRate string
	epoch      string
}

var channelPrefixes = map[redvox.SensorType][]string{
	redvox.SensorAudio:         {"Aud"},
	redvox.SensorBarometer:     {"Bar"},
	redvox.SensorAccelerometer: {"AccX", "AccY", "AccZ"},
	redvox.SensorGyroscope:     {"GyrX", "GyrY", "GyrZ"},
	redvox.SensorMagnetometer:  {"MagX", "MagY", "MagZ"},
}

// waveformColumns returns the waveform columns of the configured sensors
// present in the frame. The highpass waveform is preferred over the raw one.
func waveformColumns(f *frame.Frame, labels []string) []sensorColumns {
	var out []sensorColumns
	for _, s := range redvox.SensorTypes {
		if s == redvox.SensorLocation || !slices.Contains(labels, string(s)) {
			continue
		}

		c := sensorColumns{sensor: s, sampleRate: frame.SampleRateLabel(s), epoch: frame.EpochLabel(s)}
		switch {
		case s == redvox.SensorAudio:
			c.wf = frame.AudioWfLabel
			c.sampleRate = frame.AudioNominalRateLabel
		case f.HasColumn(frame.HighpassWfLabel(s)):
			c.wf = frame.HighpassWfLabel(s)
		default:
			c.wf = frame.RawWfLabel(s)
		}

		if f.HasColumn(c.wf) {
			out = append(out, c)
		}
	}
	return out
}

// channelNames returns n display names for the channels of a sensor.
func channelNames(s redvox.SensorType, n int) []string {
	defaults := channelPrefixes[s]
	if len(defaults) == n {
		return defaults
	}
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", s, i)
	}
	return names
}

func channelCount(f *frame.Frame, row int, label string) int {
	v, err := f.Get(row, label)
	if err != nil || frame.IsEmpty(v) {
		return 0
	}
	chans, err := f.Channels(row, label)
	if err != nil {
		return 0
	}
	return len(chans)
}

func (a *App) loadDataWindow() (*redvox.DataWindow, error) {
	dw, err := redvox.LoadDataWindow(a.config.DataWindowPath())
	if err != nil {
		return nil, err
	}
	a.logger.Info("data window loaded",
		slog.String("path", a.config.DataWindowPath()),
		slog.Int("stations", len(dw.Stations)))
	return dw, nil
}

// buildFrame creates the station frame with highpass and TFR columns.
func (a *App) buildFrame(dw *redvox.DataWindow, withTFR bool) (*frame.Frame, error) {
	opts := frame.BuildOptions{
		StationIDs:       a.config.StationIDs,
		SensorLabels:     a.config.SensorLabels,
		HighpassCutoffHz: a.file.Process.HighpassCutoffHz,
	}
	opts.WindowStartS, opts.WindowEndS, opts.WindowSet = a.config.WindowEpochS()

	f := frame.Build(dw, opts)
	if !withTFR {
		return f, nil
	}

	for _, c := range waveformColumns(f, a.config.SensorLabels) {
		if err := spectrum.AddTFRColumns(f, string(c.sensor), c.wf, c.sampleRate, a.file.Process.BandOrder, a.logger); err != nil {
			return nil, fmt.Errorf("%s time-frequency representation: %w", c.sensor, err)
		}
	}
	return f, nil
}

// loadFrame returns the station frame following the configured load method.
// Time-frequency columns are only computed for frames built from a data
// window when withTFR is set; snapshots carry whatever was stored.
func (a *App) loadFrame(ctx context.Context, withTFR bool) (*frame.Frame, error) {
	if !a.config.LoadMethod.Supported() {
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedLoadMethod, a.config.LoadMethod)
	}

	if a.config.LoadMethod == config.LoadDataWindow {
		dw, err := a.loadDataWindow()
		if err != nil {
			return nil, err
		}
		report.StationMetadata(dw, a.logger)
		return a.buildFrame(dw, withTFR)
	}

	store := storage.NewSqliteStore(a.config.SnapshotPath())
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Error("failed to close store", slog.String("error", err.Error()))
		}
	}()

	snap, err := store.LatestSnapshot(ctx, a.config.EventName)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", a.config.EventName, err)
	}
	f, err := store.ReadSnapshot(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	if err = frame.UnflattenColumns(f); err != nil {
		return nil, err
	}
	a.logger.Info("snapshot loaded", slog.Int64("id", snap.ID), slog.Int("rows", f.Len()))
	return f, nil
}
