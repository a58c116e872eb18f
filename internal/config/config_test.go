package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	dir := t.TempDir()

	c, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultEventName, c.EventName)
	assert.Equal(t, filepath.Join(dir, DefaultOutputSubdir), c.OutputDir)
	assert.Equal(t, "Redvox", c.OutputFilename)
	assert.Equal(t, "Redvox.json", c.DataWindowFile)
	assert.Equal(t, "Redvox_df.sqlite", c.SnapshotFile)
	assert.Equal(t, []string{"audio"}, c.SensorLabels)
	assert.Equal(t, DefaultBufferMins, c.StartBufferMin)
	assert.Equal(t, DefaultBufferMins, c.EndBufferMin)
	assert.Equal(t, LoadDataWindow, c.LoadMethod)
	assert.Nil(t, c.EventEndS)

	_, _, ok := c.WindowEpochS()
	assert.False(t, ok)
}

func TestNew_MissingInputDir(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputDirNotFound))
}

func TestNew_CreatesOutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "nested")

	c, err := New(dir,
		WithEventName("Skyfall"),
		WithOutputDir(out),
		WithOutputFilename("sky"),
		WithSensorLabels("audio", "barometer"),
		WithLoadMethod("PARQUET"),
	)
	require.NoError(t, err)

	stat, err := os.Stat(out)
	require.NoError(t, err)
	assert.True(t, stat.IsDir())

	assert.Equal(t, "sky.json", c.DataWindowFile)
	assert.Equal(t, filepath.Join(out, "sky_df.sqlite"), c.SnapshotPath())
	assert.Equal(t, []string{"audio", "barometer"}, c.SensorLabels)
	assert.Equal(t, LoadParquet, c.LoadMethod)
}

func TestNew_EventWindow(t *testing.T) {
	duration := 30 * 60
	c, err := New(t.TempDir(), WithEventWindow(1603806314, &duration), WithBuffers(1, 2))
	require.NoError(t, err)
	require.NotNil(t, c.EventEndS)
	assert.Equal(t, 1603806314.0+1800, *c.EventEndS)

	start, end, ok := c.WindowEpochS()
	require.True(t, ok)
	assert.Equal(t, 1603806314.0-60, start)
	assert.Equal(t, 1603806314.0+1800+120, end)
}

func TestNew_DurationWithoutStart(t *testing.T) {
	o := func(o *options) {
		d := 10
		o.durationS = &d
	}
	_, err := New(t.TempDir(), o)
	require.Error(t, err)
}

func TestMethodFromString(t *testing.T) {
	tests := []struct {
		in   string
		want DataLoadMethod
	}{
		{"datawindow", LoadDataWindow},
		{"DataWindow", LoadDataWindow},
		{"pickle", LoadPickle},
		{"parquet", LoadParquet},
		{"sqlite", LoadParquet},
		{"csv", LoadUnknown},
		{"", LoadUnknown},
	}
	for _, tt := range tests {
		if got := MethodFromString(tt.in); got != tt.want {
			t.Errorf("MethodFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	assert.False(t, LoadPickle.Supported())
	assert.True(t, LoadParquet.Supported())
}

func TestPretty(t *testing.T) {
	c, err := New(t.TempDir(), WithEventName("Skyfall"))
	require.NoError(t, err)

	out := c.Pretty()
	assert.Contains(t, out, "eventName: Skyfall")
	assert.Contains(t, out, "loadMethod: datawindow")
	assert.Contains(t, out, "- audio")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
settings:
  logLevel: debug
event:
  name: Skyfall
  inputDirectory: ` + dir + `
  sensorLabels: [audio, barometer, accelerometer]
  startEpochS: 1603806314
  durationS: 1800
  startBufferMinutes: 0
process:
  bandOrder: 12
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, f.Settings.Level())
	assert.Equal(t, 12, f.Process.BandOrder)
	assert.Equal(t, DefaultWavSampleRateHz, f.Process.WavSampleRateHz)
	assert.Equal(t, DefaultHighpassCutoffHz, f.Process.HighpassCutoffHz)

	c, err := f.Config(slog.Default())
	require.NoError(t, err)
	assert.Equal(t, "Skyfall", c.EventName)
	assert.Equal(t, 0, c.StartBufferMin)
	assert.Equal(t, DefaultBufferMins, c.EndBufferMin)
	require.NotNil(t, c.EventEndS)
	assert.Equal(t, 1603808114.0, *c.EventEndS)
}

func TestSettingsLevel_Invalid(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Settings{LogLevel: "loud"}.Level())
	assert.Equal(t, slog.LevelWarn, Settings{LogLevel: "warn"}.Level())
}
