package spectrum

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/roman-kulish/redpandas/internal/frame"
)

// Column label suffixes written by AddTFRColumns
const (
	MagnitudeSuffix = "_stft"
	BitsSuffix      = "_stft_bits"
	TimeSuffix      = "_stft_time_s"
	FrequencySuffix = "_stft_frequency_hz"
)

func MagnitudeLabel(sensor string) string { return sensor + MagnitudeSuffix }
func BitsLabel(sensor string) string      { return sensor + BitsSuffix }
func TimeLabel(sensor string) string      { return sensor + TimeSuffix }
func FrequencyLabel(sensor string) string { return sensor + FrequencySuffix }

// AddTFRColumns computes the TFR of every channel in wfLabel and stores the
// results in per-channel columns named after sensorLabel. Rows without a
// waveform, and rows with a channel too short for one segment, are left empty.
func AddTFRColumns(f *frame.Frame, sensorLabel, wfLabel, sampleRateLabel string, bandOrder int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if !f.HasColumn(wfLabel) {
		return fmt.Errorf("%w: %s", frame.ErrColumnNotFound, wfLabel)
	}
	if !f.HasColumn(sampleRateLabel) {
		return fmt.Errorf("%w: %s", frame.ErrColumnNotFound, sampleRateLabel)
	}

	labels := []string{
		MagnitudeLabel(sensorLabel),
		BitsLabel(sensorLabel),
		TimeLabel(sensorLabel),
		FrequencyLabel(sensorLabel),
	}

rows:
	for row := 0; row < f.Len(); row++ {
		for _, l := range labels {
			if err := f.Set(row, l, nil); err != nil {
				return err
			}
		}

		v, err := f.Get(row, wfLabel)
		if err != nil {
			return err
		}
		if frame.IsEmpty(v) {
			continue
		}
		rate, err := f.Float(row, sampleRateLabel)
		if err != nil {
			return err
		}
		channels, err := f.Channels(row, wfLabel)
		if err != nil {
			return err
		}

		var (
			mags, bits = make([]*mat.Dense, len(channels)), make([]*mat.Dense, len(channels))
			times      = make([][]float64, len(channels))
			freqs      = make([][]float64, len(channels))
		)
		for i, ch := range channels {
			tfr, err := STFT(ch, rate, bandOrder)
			if errors.Is(err, ErrSignalTooShort) {
				logger.Warn("skipping time-frequency representation",
					slog.String("column", wfLabel),
					slog.Int("row", row),
					slog.Int("channel", i),
					slog.String("reason", err.Error()))
				continue rows
			}
			if err != nil {
				return fmt.Errorf("%s, row %d, channel %d: %w", wfLabel, row, i, err)
			}
			mags[i], bits[i] = tfr.Magnitude, tfr.Bits
			times[i], freqs[i] = tfr.TimeS, tfr.FrequencyHz
		}

		values := []any{mags, bits, times, freqs}
		for i, l := range labels {
			if err := f.Set(row, l, values[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
