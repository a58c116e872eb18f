package redvox

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/stat"
)

// LoadDataWindow reads a serialized data window from a JSON file.
func LoadDataWindow(path string) (*DataWindow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data window: %w", err)
	}
	defer f.Close()

	dw, err := ReadDataWindow(f)
	if err != nil {
		return nil, fmt.Errorf("reading data window '%s': %w", path, err)
	}
	return dw, nil
}

// ReadDataWindow decodes and validates a data window. Missing sample rate
// statistics are derived from the sensor timestamps.
func ReadDataWindow(r io.Reader) (*DataWindow, error) {
	var dw DataWindow
	if err := json.NewDecoder(r).Decode(&dw); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if err := dw.prepare(); err != nil {
		return nil, err
	}
	return &dw, nil
}

// WriteDataWindow serializes a data window as JSON.
func WriteDataWindow(w io.Writer, dw *DataWindow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dw); err != nil {
		return fmt.Errorf("encoding data window: %w", err)
	}
	return nil
}

// Station returns the station with the given ID, nil when absent.
func (dw *DataWindow) Station(id string) *Station {
	for _, st := range dw.Stations {
		if st.ID == id {
			return st
		}
	}
	return nil
}

func (dw *DataWindow) prepare() error {
	for i, st := range dw.Stations {
		if st == nil {
			return fmt.Errorf("station #%d is empty", i)
		}
		if st.ID == "" {
			return fmt.Errorf("station #%d: %w", i, errors.New("station id is required"))
		}
		for t, s := range st.Sensors {
			if s == nil {
				delete(st.Sensors, t)
				continue
			}
			if err := s.prepare(); err != nil {
				return fmt.Errorf("station %s, sensor %s: %w", st.ID, t, err)
			}
		}
	}
	return nil
}

func (s *Sensor) prepare() error {
	n := len(s.Timestamps)
	for _, ch := range s.Channels {
		if len(ch.Values) != n {
			return fmt.Errorf("channel %q has %d values, expected %d", ch.Name, len(ch.Values), n)
		}
	}
	if s.SampleIntervalS == 0 && n > 1 {
		s.SampleIntervalS, s.SampleIntervalStdS = intervalStats(s.Timestamps)
	}
	if s.SampleRateHz == 0 && s.SampleIntervalS > 0 {
		s.SampleRateHz = 1 / s.SampleIntervalS
	}
	return nil
}

// intervalStats returns the mean and population standard deviation of the
// sample intervals in seconds.
func intervalStats(timestampsUs []float64) (mean, std float64) {
	diffs := make([]float64, len(timestampsUs)-1)
	for i := 1; i < len(timestampsUs); i++ {
		diffs[i-1] = (timestampsUs[i] - timestampsUs[i-1]) / 1e6
	}
	return stat.PopMeanStdDev(diffs, nil)
}
