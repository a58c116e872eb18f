package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEventName    = "Redvox"
	DefaultOutputSubdir = "rpd_files"
	DefaultBufferMins   = 3

	dataWindowExt = ".json"
	snapshotExt   = "_df.sqlite"
)

var DefaultSensorLabels = []string{"audio"}

// ErrInputDirNotFound is returned when the input directory does not exist.
var ErrInputDirNotFound = errors.New("input directory does not exist")

// Config holds the settings shared by the processing workflows
type Config struct {
	InputDir       string         `yaml:"inputDirectory"`
	EventName      string         `yaml:"eventName"`
	OutputDir      string         `yaml:"outputDirectory"`
	OutputFilename string         `yaml:"outputFilename"`
	DataWindowFile string         `yaml:"dataWindowFile"`
	SnapshotFile   string         `yaml:"snapshotFile"`
	StationIDs     []string       `yaml:"stationIDs,omitempty"`
	SensorLabels   []string       `yaml:"sensorLabels"`
	EventStartS    *float64       `yaml:"eventStartEpochS,omitempty"`
	DurationS      *int           `yaml:"durationS,omitempty"`
	EventEndS      *float64       `yaml:"eventEndEpochS,omitempty"`
	StartBufferMin int            `yaml:"startBufferMinutes"`
	EndBufferMin   int            `yaml:"endBufferMinutes"`
	LoadMethod     DataLoadMethod `yaml:"loadMethod"`
}

// Option customizes a Config built by New
type Option func(*options)

type options struct {
	eventName      string
	outputDir      string
	outputFilename string
	stationIDs     []string
	sensorLabels   []string
	eventStartS    *float64
	durationS      *int
	startBufferMin int
	endBufferMin   int
	loadMethod     string
	logger         *slog.Logger
}

func WithEventName(name string) Option {
	return func(o *options) { o.eventName = name }
}

func WithOutputDir(dir string) Option {
	return func(o *options) { o.outputDir = dir }
}

func WithOutputFilename(name string) Option {
	return func(o *options) { o.outputFilename = name }
}

func WithStationIDs(ids ...string) Option {
	return func(o *options) { o.stationIDs = ids }
}

func WithSensorLabels(labels ...string) Option {
	return func(o *options) { o.sensorLabels = labels }
}

// WithEventWindow sets the event start in epoch seconds and its duration in seconds.
// A nil duration leaves the event end open.
func WithEventWindow(startS float64, durationS *int) Option {
	return func(o *options) {
		o.eventStartS = &startS
		o.durationS = durationS
	}
}

func WithBuffers(startMin, endMin int) Option {
	return func(o *options) {
		o.startBufferMin = startMin
		o.endBufferMin = endMin
	}
}

func WithLoadMethod(method string) Option {
	return func(o *options) { o.loadMethod = method }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New validates the input directory and derives output paths and filenames.
// A missing output directory is created.
func New(inputDir string, opts ...Option) (*Config, error) {
	o := options{
		eventName:      DefaultEventName,
		startBufferMin: DefaultBufferMins,
		endBufferMin:   DefaultBufferMins,
		loadMethod:     LoadDataWindow.String(),
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := os.Stat(inputDir); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w, check path: %s", ErrInputDirNotFound, inputDir)
		}
		return nil, fmt.Errorf("checking input directory: %w", err)
	}

	c := &Config{
		InputDir:       inputDir,
		EventName:      o.eventName,
		StationIDs:     o.stationIDs,
		SensorLabels:   o.sensorLabels,
		EventStartS:    o.eventStartS,
		DurationS:      o.durationS,
		StartBufferMin: o.startBufferMin,
		EndBufferMin:   o.endBufferMin,
		LoadMethod:     MethodFromString(o.loadMethod),
	}

	if o.outputDir != "" {
		c.OutputDir = o.outputDir
		if _, err := os.Stat(c.OutputDir); os.IsNotExist(err) {
			o.logger.Info("creating output directory", slog.String("path", c.OutputDir))
			if err = os.MkdirAll(c.OutputDir, 0o755); err != nil {
				return nil, fmt.Errorf("creating output directory: %w", err)
			}
		}
	} else {
		c.OutputDir = filepath.Join(c.InputDir, DefaultOutputSubdir)
	}

	c.OutputFilename = o.outputFilename
	if c.OutputFilename == "" {
		c.OutputFilename = c.EventName
	}
	c.DataWindowFile = c.OutputFilename + dataWindowExt
	c.SnapshotFile = c.OutputFilename + snapshotExt

	if len(c.SensorLabels) == 0 {
		c.SensorLabels = append([]string(nil), DefaultSensorLabels...)
	}

	if c.DurationS != nil {
		if c.EventStartS == nil {
			return nil, errors.New("event duration requires an event start")
		}
		end := *c.EventStartS + float64(*c.DurationS)
		c.EventEndS = &end
	}

	return c, nil
}

// DataWindowPath is the full path of the serialized data window.
func (c *Config) DataWindowPath() string {
	return filepath.Join(c.OutputDir, c.DataWindowFile)
}

// SnapshotPath is the full path of the columnar snapshot.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.OutputDir, c.SnapshotFile)
}

// WindowEpochS returns the event window widened by the configured buffers.
// The end is +Inf when no duration is configured, ok is false when no event
// start is configured.
func (c *Config) WindowEpochS() (start, end float64, ok bool) {
	if c.EventStartS == nil {
		return 0, 0, false
	}
	start = *c.EventStartS - float64(c.StartBufferMin)*60
	end = math.Inf(1)
	if c.EventEndS != nil {
		end = *c.EventEndS + float64(c.EndBufferMin)*60
	}
	return start, end, true
}

// Pretty returns a human-readable dump of the configuration.
func (c *Config) Pretty() string {
	p, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return strings.TrimRight(string(p), "\n")
}
