package frame

import (
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/roman-kulish/redpandas/internal/redvox"
)

// Column labels shared by the workflows.
const (
	StationIDLabel         = "station_id"
	StationMakeLabel       = "station_make"
	StationModelLabel      = "station_model"
	StationOSLabel         = "station_os"
	StationAppVersionLabel = "station_app_version"
	SDKVersionLabel        = "redvox_sdk_version"
	StationStartLabel      = "station_start_date_epoch_micros"

	AudioNominalRateLabel = "audio_sample_rate_nominal_hz"
	AudioWfLabel          = "audio_wf"
)

// Per-sensor label helpers
func SensorNameLabel(s redvox.SensorType) string   { return string(s) + "_sensor_name" }
func SampleRateLabel(s redvox.SensorType) string   { return string(s) + "_sample_rate_hz" }
func EpochLabel(s redvox.SensorType) string        { return string(s) + "_epoch_s" }
func RawWfLabel(s redvox.SensorType) string        { return string(s) + "_wf_raw" }
func HighpassWfLabel(s redvox.SensorType) string   { return string(s) + "_wf_highpass" }
func ChannelNamesLabel(s redvox.SensorType) string { return string(s) + "_channel_names" }

// BuildOptions controls which stations, sensors and samples end up in the frame
type BuildOptions struct {
	StationIDs       []string // empty keeps every station
	SensorLabels     []string // unsupported labels are ignored, empty means audio only
	HighpassCutoffHz float64  // zero disables the highpass columns
	WindowStartS     float64  // epoch seconds, used when WindowSet is true
	WindowEndS       float64
	WindowSet        bool
}

// Build creates one row per station of the data window.
func Build(dw *redvox.DataWindow, opts BuildOptions) *Frame {
	sensors := selectSensors(opts.SensorLabels)

	f := New(StationIDLabel, StationMakeLabel, StationModelLabel, StationOSLabel,
		StationAppVersionLabel, SDKVersionLabel, StationStartLabel)

	for _, st := range dw.Stations {
		if len(opts.StationIDs) > 0 && !slices.Contains(opts.StationIDs, st.ID) {
			continue
		}

		row := Row{
			StationIDLabel:         st.ID,
			StationMakeLabel:       st.Metadata.Make,
			StationModelLabel:      st.Metadata.Model,
			StationOSLabel:         st.Metadata.OS.String(),
			StationAppVersionLabel: st.Metadata.AppVersion,
			SDKVersionLabel:        dw.SDKVersion,
			StationStartLabel:      st.StartTimestamp,
		}

		for _, s := range sensors {
			addSensor(row, st, s, opts)
		}
		f.AddRow(row)
	}

	// make sure every requested column exists even when no station has data
	for _, s := range sensors {
		for _, l := range sensorLabels(s, opts.HighpassCutoffHz > 0) {
			f.addColumn(l)
		}
	}
	return f
}

func selectSensors(labels []string) []redvox.SensorType {
	if len(labels) == 0 {
		return []redvox.SensorType{redvox.SensorAudio}
	}
	var out []redvox.SensorType
	for _, s := range redvox.SensorTypes {
		if slices.Contains(labels, string(s)) {
			out = append(out, s)
		}
	}
	return out
}

func hasHighpass(s redvox.SensorType) bool {
	return s != redvox.SensorAudio && s != redvox.SensorLocation
}

func sensorLabels(s redvox.SensorType, highpass bool) []string {
	if s == redvox.SensorAudio {
		return []string{SensorNameLabel(s), AudioNominalRateLabel, SampleRateLabel(s), EpochLabel(s), AudioWfLabel}
	}
	labels := []string{SensorNameLabel(s), SampleRateLabel(s), EpochLabel(s), ChannelNamesLabel(s), RawWfLabel(s)}
	if highpass && hasHighpass(s) {
		labels = append(labels, HighpassWfLabel(s))
	}
	return labels
}

func addSensor(row Row, st *redvox.Station, s redvox.SensorType, opts BuildOptions) {
	sensor := st.Sensor(s)
	if sensor.NumSamples() == 0 || len(sensor.Channels) == 0 {
		return
	}

	epoch := sensor.EpochS()
	lo, hi := 0, len(epoch)
	if opts.WindowSet {
		lo, hi = windowBounds(epoch, opts.WindowStartS, opts.WindowEndS)
		if lo >= hi {
			return
		}
	}
	epoch = epoch[lo:hi]

	row[SensorNameLabel(s)] = sensor.Name
	row[SampleRateLabel(s)] = sensor.SampleRateHz
	row[EpochLabel(s)] = epoch

	if s == redvox.SensorAudio {
		row[AudioNominalRateLabel] = st.AudioSampleRateNominalHz
		row[AudioWfLabel] = slices.Clone(sensor.Channels[0].Values[lo:hi])
		return
	}

	n := hi - lo
	names := make([]string, len(sensor.Channels))
	raw := mat.NewDense(len(sensor.Channels), n, nil)
	for i, ch := range sensor.Channels {
		names[i] = ch.Name
		raw.SetRow(i, ch.Values[lo:hi])
	}
	row[ChannelNamesLabel(s)] = strings.Join(names, ",")
	row[RawWfLabel(s)] = raw

	if opts.HighpassCutoffHz > 0 && hasHighpass(s) {
		hp := mat.NewDense(len(sensor.Channels), n, nil)
		for i, ch := range sensor.Channels {
			hp.SetRow(i, Highpass(ch.Values[lo:hi], sensor.SampleRateHz, opts.HighpassCutoffHz))
		}
		row[HighpassWfLabel(s)] = hp
	}
}

// windowBounds returns the index range of samples within [start, end].
func windowBounds(epochS []float64, start, end float64) (int, int) {
	if math.IsNaN(end) {
		end = math.Inf(1)
	}
	lo, _ := slices.BinarySearch(epochS, start)
	hi := lo
	for hi < len(epochS) && epochS[hi] <= end {
		hi++
	}
	return lo, hi
}
