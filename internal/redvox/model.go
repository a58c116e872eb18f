// Package redvox models the station and sensor object graph produced by the
// recording SDK and reads it from serialized data window files.
package redvox

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OsType identifies the operating system of a recording station
type OsType int

const (
	OsUnknown OsType = iota
	OsAndroid
	OsIOS
	OsOSX
	OsLinux
	OsWindows
)

var osTypeNames = map[OsType]string{
	OsUnknown: "UNKNOWN_OS",
	OsAndroid: "ANDROID",
	OsIOS:     "IOS",
	OsOSX:     "OSX",
	OsLinux:   "LINUX",
	OsWindows: "WINDOWS",
}

func (o OsType) String() string {
	if n, ok := osTypeNames[o]; ok {
		return n
	}
	return osTypeNames[OsUnknown]
}

// UnmarshalJSON accepts either the numeric value or the enum name.
func (o *OsType) UnmarshalJSON(p []byte) error {
	var n int
	if err := json.Unmarshal(p, &n); err == nil {
		*o = OsType(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(p, &s); err != nil {
		return fmt.Errorf("invalid os type %s", string(p))
	}
	for k, v := range osTypeNames {
		if strings.EqualFold(v, s) {
			*o = k
			return nil
		}
	}
	*o = OsUnknown
	return nil
}

func (o OsType) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// SensorType names a sensor channel group of a station
type SensorType string

const (
	SensorAudio         SensorType = "audio"
	SensorBarometer     SensorType = "barometer"
	SensorAccelerometer SensorType = "accelerometer"
	SensorGyroscope     SensorType = "gyroscope"
	SensorMagnetometer  SensorType = "magnetometer"
	SensorLocation      SensorType = "location"
)

// SensorTypes lists the supported sensors in report order.
var SensorTypes = []SensorType{
	SensorAudio,
	SensorBarometer,
	SensorAccelerometer,
	SensorGyroscope,
	SensorMagnetometer,
	SensorLocation,
}

// DataWindow is a time window of data for one or more stations
type DataWindow struct {
	SDKVersion string     `json:"sdkVersion"`
	EventName  string     `json:"eventName,omitempty"`
	Stations   []*Station `json:"stations"`
}

// StationMetadata describes the recording device
type StationMetadata struct {
	Make       string `json:"make"`
	Model      string `json:"model"`
	OS         OsType `json:"os"`
	OSVersion  string `json:"osVersion"`
	AppVersion string `json:"appVersion"`
}

// Station is a physical recording unit with its sensors. Timestamps are in
// microseconds since epoch.
type Station struct {
	ID                       string                 `json:"id"`
	Metadata                 StationMetadata        `json:"metadata"`
	StartTimestamp           float64                `json:"startTimestamp"`
	FirstDataTimestamp       float64                `json:"firstDataTimestamp"`
	LastDataTimestamp        float64                `json:"lastDataTimestamp"`
	AudioSampleRateNominalHz float64                `json:"audioSampleRateNominalHz"`
	Sensors                  map[SensorType]*Sensor `json:"sensors"`
}

// Channel is a single named data series of a sensor
type Channel struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Sensor holds the samples of one sensor. Timestamps are in microseconds
// since epoch, one per sample of every channel.
type Sensor struct {
	Name               string    `json:"name"`
	SampleRateHz       float64   `json:"sampleRateHz"`
	SampleIntervalS    float64   `json:"sampleIntervalS"`
	SampleIntervalStdS float64   `json:"sampleIntervalStdS"`
	Timestamps         []float64 `json:"timestamps"`
	Channels           []Channel `json:"channels"`
}

// NumSamples returns the number of samples per channel.
func (s *Sensor) NumSamples() int {
	if s == nil {
		return 0
	}
	return len(s.Timestamps)
}

// EpochS returns the sample timestamps in seconds since epoch.
func (s *Sensor) EpochS() []float64 {
	out := make([]float64, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		out[i] = ts / 1e6
	}
	return out
}

// Sensor returns the sensor of the given type, nil when absent.
func (st *Station) Sensor(t SensorType) *Sensor {
	if st.Sensors == nil {
		return nil
	}
	return st.Sensors[t]
}

// HasData reports whether the station holds samples for the sensor.
func (st *Station) HasData(t SensorType) bool {
	return st.Sensor(t).NumSamples() > 0
}

func (st *Station) AudioSensor() *Sensor         { return st.Sensor(SensorAudio) }
func (st *Station) BarometerSensor() *Sensor     { return st.Sensor(SensorBarometer) }
func (st *Station) AccelerometerSensor() *Sensor { return st.Sensor(SensorAccelerometer) }
func (st *Station) GyroscopeSensor() *Sensor     { return st.Sensor(SensorGyroscope) }
func (st *Station) MagnetometerSensor() *Sensor  { return st.Sensor(SensorMagnetometer) }
func (st *Station) LocationSensor() *Sensor      { return st.Sensor(SensorLocation) }

func (st *Station) HasAudioData() bool         { return st.HasData(SensorAudio) }
func (st *Station) HasBarometerData() bool     { return st.HasData(SensorBarometer) }
func (st *Station) HasAccelerometerData() bool { return st.HasData(SensorAccelerometer) }
func (st *Station) HasGyroscopeData() bool     { return st.HasData(SensorGyroscope) }
func (st *Station) HasMagnetometerData() bool  { return st.HasData(SensorMagnetometer) }
func (st *Station) HasLocationData() bool      { return st.HasData(SensorLocation) }

// TimeFromMicros converts epoch microseconds to UTC time.
func TimeFromMicros(us float64) time.Time {
	return time.UnixMicro(int64(us)).UTC()
}
