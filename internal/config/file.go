package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File represents the YAML configuration file
type File struct {
	Settings Settings      `yaml:"settings"`
	Event    EventConfig   `yaml:"event"`
	Process  ProcessConfig `yaml:"process"`
	Render   RenderConfig  `yaml:"render"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// EventConfig mirrors the options accepted by New
type EventConfig struct {
	Name               string   `yaml:"name"`
	InputDirectory     string   `yaml:"inputDirectory"`
	OutputDirectory    string   `yaml:"outputDirectory"`
	OutputFilename     string   `yaml:"outputFilename"`
	StationIDs         []string `yaml:"stationIDs"`
	SensorLabels       []string `yaml:"sensorLabels"`
	StartEpochS        *float64 `yaml:"startEpochS"`
	DurationS          *int     `yaml:"durationS"`
	StartBufferMinutes *int     `yaml:"startBufferMinutes"`
	EndBufferMinutes   *int     `yaml:"endBufferMinutes"`
	LoadMethod         string   `yaml:"loadMethod"`
}

// ProcessConfig holds signal processing parameters
type ProcessConfig struct {
	HighpassCutoffHz float64 `yaml:"highpassCutoffHz"`
	BandOrder        int     `yaml:"bandOrder"`
	WavSampleRateHz  int     `yaml:"wavSampleRateHz"`
	Workers          int     `yaml:"workers"`
}

// RenderConfig holds plot rendering parameters
type RenderConfig struct {
	Theme       string `yaml:"theme"`
	Format      string `yaml:"format"`
	WiggleColor string `yaml:"wiggleColor"`
}

const (
	DefaultHighpassCutoffHz = 0.01
	DefaultBandOrder        = 3
	DefaultWavSampleRateHz  = 192000
	DefaultWorkers          = 4
	DefaultWiggleColor      = "midnightblue"
)

// LoadFile reads and parses a YAML configuration file, filling defaults
// for omitted processing parameters.
func LoadFile(path string) (*File, error) {
	p, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var f File
	if err = yaml.Unmarshal(p, &f); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if f.Process.HighpassCutoffHz <= 0 {
		f.Process.HighpassCutoffHz = DefaultHighpassCutoffHz
	}
	if f.Process.BandOrder <= 0 {
		f.Process.BandOrder = DefaultBandOrder
	}
	if f.Process.WavSampleRateHz <= 0 {
		f.Process.WavSampleRateHz = DefaultWavSampleRateHz
	}
	if f.Process.Workers <= 0 {
		f.Process.Workers = DefaultWorkers
	}
	if f.Render.WiggleColor == "" {
		f.Render.WiggleColor = DefaultWiggleColor
	}
	return &f, nil
}

// Config builds the validated configuration described by the event section.
func (f *File) Config(logger *slog.Logger) (*Config, error) {
	e := f.Event
	if e.InputDirectory == "" {
		return nil, fmt.Errorf("event.inputDirectory is required")
	}

	opts := []Option{
		WithLogger(logger),
		WithOutputDir(e.OutputDirectory),
		WithOutputFilename(e.OutputFilename),
		WithStationIDs(e.StationIDs...),
		WithSensorLabels(e.SensorLabels...),
	}
	if e.Name != "" {
		opts = append(opts, WithEventName(e.Name))
	}
	if e.LoadMethod != "" {
		opts = append(opts, WithLoadMethod(e.LoadMethod))
	}
	if e.StartEpochS != nil {
		opts = append(opts, WithEventWindow(*e.StartEpochS, e.DurationS))
	}
	if e.StartBufferMinutes != nil || e.EndBufferMinutes != nil {
		startMin, endMin := DefaultBufferMins, DefaultBufferMins
		if e.StartBufferMinutes != nil {
			startMin = *e.StartBufferMinutes
		}
		if e.EndBufferMinutes != nil {
			endMin = *e.EndBufferMinutes
		}
		opts = append(opts, WithBuffers(startMin, endMin))
	}

	return New(e.InputDirectory, opts...)
}

// Level parses the configured log level, defaulting to info.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
