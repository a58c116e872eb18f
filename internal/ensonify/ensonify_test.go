package ensonify

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/youpy/go-wav"
	"gonum.org/v1/gonum/mat"

	"github.com/roman-kulish/redpandas/internal/frame"
)

func testFrame() *frame.Frame {
	audio := make([]float64, 800)
	for i := range audio {
		audio[i] = 0.25 * math.Sin(2*math.Pi*float64(i)/80)
	}
	acc := mat.NewDense(3, 100, nil)
	for i := 0; i < 100; i++ {
		acc.Set(0, i, float64(i))
		acc.Set(1, i, -2*float64(i))
		acc.Set(2, i, math.Cos(float64(i)))
	}

	f := frame.New(frame.StationIDLabel)
	f.AddRow(frame.Row{
		frame.StationIDLabel:           "1637610021",
		"audio_wf":                     audio,
		"audio_sample_rate_nominal_hz": 800.0,
		"accelerometer_wf_highpass":    acc,
		"accelerometer_sample_rate_hz": 100.0,
	})
	f.AddRow(frame.Row{
		frame.StationIDLabel:           "1637610022",
		"audio_wf":                     audio[:400],
		"audio_sample_rate_nominal_hz": 800.0,
	})
	return f
}

func readWav(t *testing.T, path string) (*wav.WavFormat, []int) {
	t.Helper()

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	r := wav.NewReader(in)
	format, err := r.Format()
	require.NoError(t, err)

	var values []int
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		for _, s := range samples {
			values = append(values, s.Values[0])
		}
	}
	return format, values
}

func TestEnsonifySensors(t *testing.T) {
	dir := t.TempDir()
	paths, err := EnsonifySensors(context.Background(), testFrame(), Options{
		SensorColumns:  []string{"audio_wf", "accelerometer_wf_highpass"},
		SampleRates:    []string{"audio_sample_rate_nominal_hz", "accelerometer_sample_rate_hz"},
		SensorNames:    []string{"Aud", "AccX", "AccY", "AccZ"},
		OutputDir:      dir,
		FilenamePrefix: "skyfall",
		Workers:        2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "skyfall_1637610021_Aud.wav"),
		filepath.Join(dir, "skyfall_1637610021_AccX.wav"),
		filepath.Join(dir, "skyfall_1637610021_AccY.wav"),
		filepath.Join(dir, "skyfall_1637610021_AccZ.wav"),
		filepath.Join(dir, "skyfall_1637610022_Aud.wav"),
	}, paths)

	format, values := readWav(t, paths[0])
	assert.EqualValues(t, DefaultWavSampleRateHz, format.SampleRate)
	assert.EqualValues(t, 1, format.NumChannels)
	assert.EqualValues(t, 16, format.BitsPerSample)
	require.Len(t, values, 800)
	assert.Equal(t, math.MaxInt16, values[20], "peak is normalized to full scale")

	_, values = readWav(t, paths[2])
	require.Len(t, values, 100)
	assert.Equal(t, -math.MaxInt16, values[99])

	_, values = readWav(t, paths[4])
	assert.Len(t, values, 400)
}

func TestEnsonifySensors_NameMismatch(t *testing.T) {
	_, err := EnsonifySensors(context.Background(), testFrame(), Options{
		SensorColumns: []string{"audio_wf", "accelerometer_wf_highpass"},
		SampleRates:   []string{"audio_sample_rate_nominal_hz", "accelerometer_sample_rate_hz"},
		SensorNames:   []string{"Aud", "Acc"},
		OutputDir:     t.TempDir(),
	})
	assert.True(t, errors.Is(err, ErrSensorNameMismatch))
}

func TestEnsonifySensors_Invalid(t *testing.T) {
	f := testFrame()

	_, err := EnsonifySensors(context.Background(), f, Options{
		SensorColumns: []string{"audio_wf"},
		OutputDir:     t.TempDir(),
	})
	assert.Error(t, err)

	_, err = EnsonifySensors(context.Background(), f, Options{
		SensorColumns: []string{"gyroscope_wf_highpass"},
		SampleRates:   []string{"gyroscope_sample_rate_hz"},
		SensorNames:   []string{"GyrX"},
		OutputDir:     t.TempDir(),
	})
	assert.True(t, errors.Is(err, frame.ErrColumnNotFound))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EnsonifySensors(ctx, f, Options{
		SensorColumns: []string{"audio_wf"},
		SampleRates:   []string{"audio_sample_rate_nominal_hz"},
		SensorNames:   []string{"Aud"},
		OutputDir:     t.TempDir(),
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []float64{0.5, -1, 0}, Normalize([]float64{1, -2, math.NaN()}))
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))
	assert.Equal(t, []float64{}, Normalize(nil))
}
