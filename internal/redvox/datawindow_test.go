package redvox

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleWindow = `{
  "sdkVersion": "3.0.0",
  "stations": [
    {
      "id": "1637610021",
      "metadata": {"make": "samsung", "model": "SM-G981U", "os": "ANDROID", "osVersion": "11", "appVersion": "3.1.2"},
      "startTimestamp": 1603806300000000,
      "firstDataTimestamp": 1603806314000000,
      "lastDataTimestamp": 1603806316000000,
      "audioSampleRateNominalHz": 800,
      "sensors": {
        "audio": {
          "name": "synch_audio",
          "sampleRateHz": 800,
          "timestamps": [0, 1250, 2500],
          "channels": [{"name": "microphone", "values": [0.1, 0.2, 0.3]}]
        },
        "barometer": {
          "name": "pressure",
          "timestamps": [1000000, 1030000, 1060000, 1100000],
          "channels": [{"name": "pressure", "values": [101.1, 101.2, 101.3, 101.2]}]
        }
      }
    },
    {
      "id": "1637610022",
      "metadata": {"os": 2},
      "sensors": {}
    }
  ]
}`

func TestReadDataWindow(t *testing.T) {
	dw, err := ReadDataWindow(strings.NewReader(sampleWindow))
	require.NoError(t, err)

	assert.Equal(t, "3.0.0", dw.SDKVersion)
	require.Len(t, dw.Stations, 2)

	st := dw.Station("1637610021")
	require.NotNil(t, st)
	assert.Equal(t, OsAndroid, st.Metadata.OS)
	assert.True(t, st.HasAudioData())
	assert.True(t, st.HasBarometerData())
	assert.False(t, st.HasAccelerometerData())
	assert.False(t, st.HasLocationData())
	assert.Nil(t, st.GyroscopeSensor())

	bar := st.BarometerSensor()
	require.NotNil(t, bar)
	assert.InDelta(t, 0.0333333, bar.SampleIntervalS, 1e-6)
	assert.InDelta(t, 0.0047140, bar.SampleIntervalStdS, 1e-6)
	assert.InDelta(t, 30.0, bar.SampleRateHz, 1e-6)

	// explicit rates are kept
	assert.Equal(t, 800.0, st.AudioSensor().SampleRateHz)
	assert.Equal(t, []float64{1, 1.03, 1.06, 1.1}, bar.EpochS())

	other := dw.Station("1637610022")
	require.NotNil(t, other)
	assert.Equal(t, OsIOS, other.Metadata.OS)
	assert.Equal(t, "IOS", other.Metadata.OS.String())
	assert.False(t, other.HasAudioData())

	assert.Nil(t, dw.Station("missing"))
}

func TestReadDataWindow_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"malformed", `{"stations": [`},
		{"missing id", `{"stations": [{"metadata": {}}]}`},
		{"length mismatch", `{"stations": [{"id": "1", "sensors": {"audio": {"timestamps": [1, 2], "channels": [{"name": "m", "values": [1]}]}}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDataWindow(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}
}

func TestLoadDataWindow_RoundTrip(t *testing.T) {
	dw, err := ReadDataWindow(strings.NewReader(sampleWindow))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDataWindow(&buf, dw))

	path := filepath.Join(t.TempDir(), "window.json")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	loaded, err := LoadDataWindow(path)
	require.NoError(t, err)
	assert.Equal(t, dw, loaded)
}

func TestTimeFromMicros(t *testing.T) {
	ts := TimeFromMicros(1603806314000000)
	assert.Equal(t, "2020-10-27 13:45:14", ts.Format("2006-01-02 15:04:05"))
}
