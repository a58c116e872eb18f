package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roman-kulish/redpandas/internal/config"
	"github.com/roman-kulish/redpandas/internal/redvox"
)

func testDataWindow(barSamples int) *redvox.DataWindow {
	const (
		audioRate = 800.0
		barRate   = 10.0
		start     = 1603806314000000.0
	)

	audio := &redvox.Sensor{Name: "synch_audio", SampleRateHz: audioRate}
	mic := redvox.Channel{Name: "microphone"}
	for i := 0; i < 1024; i++ {
		audio.Timestamps = append(audio.Timestamps, start+float64(i)*1e6/audioRate)
		mic.Values = append(mic.Values, math.Sin(2*math.Pi*100*float64(i)/audioRate))
	}
	audio.Channels = []redvox.Channel{mic}

	bar := &redvox.Sensor{Name: "pressure", SampleRateHz: barRate}
	pressure := redvox.Channel{Name: "pressure"}
	for i := 0; i < barSamples; i++ {
		bar.Timestamps = append(bar.Timestamps, start+float64(i)*1e6/barRate)
		pressure.Values = append(pressure.Values, 101.3+0.01*math.Sin(float64(i)))
	}
	bar.Channels = []redvox.Channel{pressure}

	return &redvox.DataWindow{
		SDKVersion: "3.0.0",
		Stations: []*redvox.Station{
			{
				ID:                       "1637610021",
				Metadata:                 redvox.StationMetadata{Make: "samsung", Model: "SM-G981U", OS: redvox.OsAndroid, AppVersion: "3.1.2"},
				StartTimestamp:           start - 14e6,
				FirstDataTimestamp:       start,
				LastDataTimestamp:        audio.Timestamps[len(audio.Timestamps)-1],
				AudioSampleRateNominalHz: audioRate,
				Sensors: map[redvox.SensorType]*redvox.Sensor{
					redvox.SensorAudio:     audio,
					redvox.SensorBarometer: bar,
				},
			},
		},
	}
}

// setup writes a data window and a configuration file and returns the
// configuration path and the output directory.
func setup(t *testing.T, loadMethod string) (string, string) {
	t.Helper()
	return setupWindow(t, loadMethod, testDataWindow(64))
}

func setupWindow(t *testing.T, loadMethod string, dw *redvox.DataWindow) (string, string) {
	t.Helper()

	dir := t.TempDir()
	inputDir := filepath.Join(dir, "input")
	outputDir := filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(inputDir, 0o755))
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	var buf bytes.Buffer
	require.NoError(t, redvox.WriteDataWindow(&buf, dw))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "test_event.json"), buf.Bytes(), 0o644))

	cfg := fmt.Sprintf(`settings:
  logLevel: debug
event:
  name: TestEvent
  inputDirectory: %s
  outputDirectory: %s
  outputFilename: test_event
  sensorLabels: [audio, barometer]
  loadMethod: %s
process:
  wavSampleRateHz: 8000
  workers: 2
render:
  theme: jungle
  format: png
`, inputDir, outputDir, loadMethod)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path, outputDir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var logLevel slog.LevelVar
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: &logLevel}))

	var out bytes.Buffer
	a := New(logger, &logLevel)
	a.Writer = &out
	a.ErrWriter = io.Discard

	err := a.RunContext(context.Background(), append([]string{"redpandas"}, args...))
	return out.String(), err
}

func TestApp_Version(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "1.3.1")
}

func TestApp_MissingConfig(t *testing.T) {
	_, err := run(t, "specs")
	assert.Error(t, err)

	_, err = run(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "specs")
	assert.Error(t, err)
}

func TestApp_Specs(t *testing.T) {
	cfg, outputDir := setup(t, "datawindow")

	_, err := run(t, "-c", cfg, "specs")
	require.NoError(t, err)

	p, err := os.ReadFile(filepath.Join(outputDir, "test_event_station.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(p), "Station ID,station.id,1637610021")
}

func TestApp_DataWindowWorkflows(t *testing.T) {
	cfg, outputDir := setup(t, "datawindow")

	_, err := run(t, "-c", cfg, "mesh")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_mesh.png"))

	_, err = run(t, "-c", cfg, "wiggles", "--station", "1637610021")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_1637610021_wiggles.png"))

	_, err = run(t, "-c", cfg, "ensonify")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_1637610021_Aud.wav"))
	assert.FileExists(t, filepath.Join(outputDir, "test_event_1637610021_Bar.wav"))

	_, err = run(t, "-c", cfg, "ensonify", "--names", "Mic")
	assert.Error(t, err)
}

func TestApp_SnapshotWorkflows(t *testing.T) {
	cfg, outputDir := setup(t, "datawindow")

	_, err := run(t, "-c", cfg, "build")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_df.sqlite"))

	out, err := run(t, "-c", cfg, "snapshots")
	require.NoError(t, err)
	assert.Contains(t, out, "TestEvent")

	snapCfg := strings.TrimSuffix(cfg, ".yaml") + "_snapshot.yaml"
	p, err := os.ReadFile(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(snapCfg, bytes.Replace(p, []byte("loadMethod: datawindow"), []byte("loadMethod: parquet"), 1), 0o644))

	_, err = run(t, "-c", snapCfg, "mesh", "-o", filepath.Join(outputDir, "from_snapshot"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "from_snapshot.png"))

	_, err = run(t, "-c", snapCfg, "ensonify", "--prefix", "snap")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "snap_1637610021_Aud.wav"))
}

func TestApp_UnsupportedLoadMethod(t *testing.T) {
	cfg, _ := setup(t, "pickle")

	for _, cmd := range []string{"mesh", "ensonify"} {
		_, err := run(t, "-c", cfg, cmd)
		assert.True(t, errors.Is(err, config.ErrUnsupportedLoadMethod), cmd)
	}
}

func TestApp_ShortBarometer(t *testing.T) {
	cfg, outputDir := setupWindow(t, "datawindow", testDataWindow(5))

	_, err := run(t, "-c", cfg, "ensonify")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_1637610021_Bar.wav"))

	_, err = run(t, "-c", cfg, "wiggles", "--station", "1637610021")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_1637610021_wiggles.png"))

	_, err = run(t, "-c", cfg, "mesh")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_mesh.png"))

	_, err = run(t, "-c", cfg, "build")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outputDir, "test_event_df.sqlite"))
}
