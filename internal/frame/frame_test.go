package frame

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/roman-kulish/redpandas/internal/redvox"
)

func TestFrame_Basics(t *testing.T) {
	f := New("station_id")
	f.AddRow(Row{"station_id": "1234567890", "audio_wf": []float64{1, 2, 3}})
	f.AddRow(Row{"station_id": "2345678901"})

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"station_id", "audio_wf"}, f.Columns())

	id, err := f.String(1, "station_id")
	require.NoError(t, err)
	assert.Equal(t, "2345678901", id)

	wf, err := f.Series(0, "audio_wf")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, wf)

	v, err := f.Get(1, "audio_wf")
	require.NoError(t, err)
	assert.True(t, IsEmpty(v))

	_, err = f.Get(0, "missing")
	assert.True(t, errors.Is(err, ErrColumnNotFound))
	_, err = f.Get(5, "station_id")
	assert.True(t, errors.Is(err, ErrRowOutOfRange))

	idx, err := f.RowByValue("station_id", "2345678901")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = f.RowByValue("audio_wf", "x")
	assert.Error(t, err)

	require.NoError(t, f.Set(0, "audio_sample_rate_nominal_hz", 800.0))
	rate, err := f.Float(0, "audio_sample_rate_nominal_hz")
	require.NoError(t, err)
	assert.Equal(t, 800.0, rate)

	_, err = f.Float(0, "station_id")
	assert.Error(t, err)

	f.DropColumn("audio_wf")
	assert.False(t, f.HasColumn("audio_wf"))
}

func TestColumnFlattenUnflatten(t *testing.T) {
	acc := mat.NewDense(3, 4, []float64{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	})
	meshes := []*mat.Dense{
		mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		mat.NewDense(2, 2, []float64{5, 6, 7, 8}),
	}

	f := New()
	f.AddRow(Row{"station_id": "1", "acc": acc, "mesh": meshes, "bar": []float64{1, 2}})
	f.AddRow(Row{"station_id": "2"})

	for _, l := range []string{"acc", "mesh", "bar"} {
		require.NoError(t, ColumnFlatten(f, l))
	}

	flat, err := f.Series(0, "acc")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, flat)

	shape, err := f.Shape(0, "acc"+NdimSuffix)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, shape)

	shape, err = f.Shape(0, "mesh"+NdimSuffix)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, shape)

	v, err := f.Get(1, "acc"+NdimSuffix)
	require.NoError(t, err)
	assert.Nil(t, v)

	for _, l := range []string{"acc", "mesh", "bar"} {
		require.NoError(t, ColumnUnflatten(f, l, l+NdimSuffix))
	}

	m, err := f.Matrix(0, "acc")
	require.NoError(t, err)
	assert.True(t, mat.Equal(acc, m))

	ms, err := f.Meshes(0, "mesh")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.True(t, mat.Equal(meshes[0], ms[0]))
	assert.True(t, mat.Equal(meshes[1], ms[1]))

	bar, err := f.Series(0, "bar")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, bar)

	chans, err := f.Channels(0, "acc")
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 6, 7, 8}, chans[1])

	// unflattening twice is a no-op
	require.NoError(t, ColumnUnflatten(f, "acc", "acc"+NdimSuffix))
}

func TestColumnUnflatten_Errors(t *testing.T) {
	f := New()
	f.AddRow(Row{"wf": []float64{1, 2, 3}, "wf_ndim": []int{2, 2}})

	err := ColumnUnflatten(f, "wf", "wf_ndim")
	assert.Error(t, err)

	err = ColumnUnflatten(f, "wf", "other_ndim")
	assert.True(t, errors.Is(err, ErrColumnNotFound))

	assert.True(t, errors.Is(ColumnFlatten(f, "missing"), ErrColumnNotFound))
}

func TestHighpass_RemovesOffset(t *testing.T) {
	const fs = 100.0
	sig := make([]float64, 2000)
	for i := range sig {
		ts := float64(i) / fs
		sig[i] = 50 + math.Sin(2*math.Pi*5*ts)
	}

	out := Highpass(sig, fs, 0.5)
	require.Len(t, out, len(sig))
	assert.InDelta(t, 50.0+math.Sin(2*math.Pi*5/fs), sig[1], 1e-9, "input must not be modified")

	mid := out[500:1500]
	assert.InDelta(t, 0, stat.Mean(mid, nil), 0.01)

	var peak float64
	for _, v := range mid {
		peak = math.Max(peak, math.Abs(v))
	}
	assert.InDelta(t, 1, peak, 0.05)
}

func TestHighpass_ShortInput(t *testing.T) {
	assert.Equal(t, []float64{}, Highpass([]float64{}, 10, 1))
	assert.Equal(t, []float64{-0.5, 0.5}, Highpass([]float64{1, 2}, 10, 1))
}

func TestHighpass_NonFinite(t *testing.T) {
	const fs = 100.0
	sig := make([]float64, 200)
	for i := range sig {
		sig[i] = 10 + math.Sin(2*math.Pi*5*float64(i)/fs)
	}
	sig[50] = math.NaN()
	sig[120] = math.Inf(1)

	out := Highpass(sig, fs, 0.5)
	require.Len(t, out, len(sig))
	assert.False(t, floats.HasNaN(out))
	for _, v := range out {
		assert.False(t, math.IsInf(v, 0))
	}
	assert.True(t, math.IsNaN(sig[50]), "input must not be modified")

	assert.Equal(t, []float64{0, 0, 0}, Highpass([]float64{math.NaN(), math.NaN(), math.Inf(-1)}, fs, 0))
}

func TestBuild(t *testing.T) {
	dw := &redvox.DataWindow{
		SDKVersion: "3.0.0",
		Stations: []*redvox.Station{
			{
				ID:                       "1637610021",
				Metadata:                 redvox.StationMetadata{Make: "samsung", OS: redvox.OsAndroid},
				AudioSampleRateNominalHz: 8,
				Sensors: map[redvox.SensorType]*redvox.Sensor{
					redvox.SensorAudio: {
						Name:         "mic",
						SampleRateHz: 8,
						Timestamps:   []float64{0, 125000, 250000, 375000},
						Channels:     []redvox.Channel{{Name: "microphone", Values: []float64{1, 2, 3, 4}}},
					},
					redvox.SensorAccelerometer: {
						Name:         "acc",
						SampleRateHz: 1,
						Timestamps:   []float64{0, 1e6, 2e6},
						Channels: []redvox.Channel{
							{Name: "x", Values: []float64{1, 1, 1}},
							{Name: "y", Values: []float64{2, 2, 2}},
							{Name: "z", Values: []float64{3, 4, 5}},
						},
					},
				},
			},
			{ID: "1637610022"},
			{ID: "ignored"},
		},
	}

	f := Build(dw, BuildOptions{
		StationIDs:       []string{"1637610021", "1637610022"},
		SensorLabels:     []string{"audio", "accelerometer", "health"},
		HighpassCutoffHz: 0.1,
	})
	require.Equal(t, 2, f.Len())

	assert.True(t, f.HasColumn(HighpassWfLabel(redvox.SensorAccelerometer)))
	assert.False(t, f.HasColumn("health_wf_raw"))

	osName, err := f.String(0, StationOSLabel)
	require.NoError(t, err)
	assert.Equal(t, "ANDROID", osName)

	audio, err := f.Series(0, AudioWfLabel)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, audio)

	raw, err := f.Matrix(0, RawWfLabel(redvox.SensorAccelerometer))
	require.NoError(t, err)
	r, c := raw.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)

	names, err := f.String(0, ChannelNamesLabel(redvox.SensorAccelerometer))
	require.NoError(t, err)
	assert.Equal(t, "x,y,z", names)

	hp, err := f.Matrix(0, HighpassWfLabel(redvox.SensorAccelerometer))
	require.NoError(t, err)
	assert.InDelta(t, 0, hp.At(0, 1), 1e-12, "constant channel becomes zero")

	v, err := f.Get(1, AudioWfLabel)
	require.NoError(t, err)
	assert.True(t, IsEmpty(v))

	windowed := Build(dw, BuildOptions{
		StationIDs:   []string{"1637610021"},
		SensorLabels: []string{"audio"},
		WindowStartS: 0.2,
		WindowEndS:   0.3,
		WindowSet:    true,
	})
	audio, err = windowed.Series(0, AudioWfLabel)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, audio)
}
