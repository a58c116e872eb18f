// Package report writes human-readable station summaries.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/roman-kulish/redpandas/internal/redvox"
)

const (
	notAvailable       = "N/A"
	notAvailableBefore = "N/A before v2.6.3"
)

var (
	valueHeader = []string{"Description", "Field", "Value"}
	dateHeader  = []string{"Description", "Field", "Epoch s", "Human UTC"}
)

// StationSpecsToCSV writes the identity, dates and sensor specifications of
// every station in the data window.
func StationSpecsToCSV(dw *redvox.DataWindow, w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, st := range dw.Stations {
		if err := writeStation(cw, dw.SDKVersion, st); err != nil {
			return fmt.Errorf("station %s: %w", st.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStationSpecsFile writes the station specifications to a CSV file.
func WriteStationSpecsFile(dw *redvox.DataWindow, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return StationSpecsToCSV(dw, f)
}

func writeStation(cw *csv.Writer, sdkVersion string, st *redvox.Station) error {
	md := st.Metadata
	rows := [][]string{
		valueHeader,
		{"Station ID", "station.id", st.ID},
		{"Make", "station.metadata.make", md.Make},
		{"Model", "station.metadata.model", md.Model},
		{"OS", "station.metadata.os", md.OS.String()},
		{"OS Version", "station.metadata.os_version", md.OSVersion},
		{"App Version", "station.metadata.app_version", md.AppVersion},
		{"SDK Version", "station.metadata.os_version", sdkVersion},
		{},
		{"Station and Event Date"},
		{},
		dateHeader,
	}

	if st.StartTimestamp > 0 {
		rows = append(rows, dateRow("Station Start Date", "station.start_timestamp", st.StartTimestamp))
	} else {
		rows = append(rows, []string{"Station Start Date", "station.start_timestamp", notAvailable, notAvailableBefore})
	}
	rows = append(rows,
		dateRow("Event Start Date", "station.first_data_timestamp", st.FirstDataTimestamp),
		dateRow("Event End Date", "station.first_data_timestamp", st.LastDataTimestamp),
		[]string{},
		[]string{"Station Sensors"},
	)

	for _, s := range redvox.SensorTypes {
		if !st.HasData(s) {
			continue
		}
		rows = append(rows, sensorRows(st, s)...)
	}

	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

func dateRow(description, field string, us float64) []string {
	return []string{description, field, formatFloat(us / 1e6), formatUTC(redvox.TimeFromMicros(us))}
}

func sensorRows(st *redvox.Station, s redvox.SensorType) [][]string {
	sensor := st.Sensor(s)
	accessor := "station." + string(s) + "_sensor()"

	rows := [][]string{
		{},
		{string(s)},
		valueHeader,
		{"Sensor Name", accessor + ".name", sensor.Name},
	}
	if s == redvox.SensorAudio {
		rows = append(rows, []string{"Nominal Rate Hz", "station.audio_sample_rate_nominal_hz", formatFloat(st.AudioSampleRateNominalHz)})
	}
	return append(rows,
		[]string{"Sample Rate Hz", accessor + ".sample_rate_hz", formatFloat(sensor.SampleRateHz)},
		[]string{"Sample Interval s", accessor + ".sample_interval_s", formatFloat(sensor.SampleIntervalS)},
		[]string{"Interval Dev s", accessor + ".sample_interval_std_s", formatFloat(sensor.SampleIntervalStdS)},
	)
}

// formatFloat prints the shortest representation, keeping a decimal point on
// whole numbers.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v == float64(int64(v)) {
		s += ".0"
	}
	return s
}

func formatUTC(t time.Time) string {
	if t.Nanosecond()/1000 == 0 {
		return t.Format(time.DateTime)
	}
	return t.Format("2006-01-02 15:04:05.000000")
}
