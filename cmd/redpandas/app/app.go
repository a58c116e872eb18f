package app

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/roman-kulish/redpandas/internal/config"
	"github.com/roman-kulish/redpandas/internal/version"
)

// App holds the state shared by the commands
type App struct {
	logger   *slog.Logger
	logLevel *slog.LevelVar

	file   *config.File
	config *config.Config
}

// New creates the command line application.
func New(logger *slog.Logger, logLevel *slog.LevelVar) *cli.App {
	a := &App{logger: logger, logLevel: logLevel}

	return &cli.App{
		Name:    version.Name,
		Usage:   "process RedVox station data: station reports, snapshots, meshes, wiggles and sound",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "build the station frame from the data window and store a snapshot",
				Before: a.loadConfig,
				Action: a.build,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-tfr", Usage: "Skip the time-frequency columns"},
				},
			},
			{
				Name:   "specs",
				Usage:  "log station metadata and write the station specifications CSV",
				Before: a.loadConfig,
				Action: a.specs,
			},
			{
				Name:   "ensonify",
				Usage:  "write every sensor channel as an audible WAV file",
				Before: a.loadConfig,
				Action: a.ensonify,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "names", Usage: "Sensor names, one per channel"},
					&cli.StringFlag{Name: "prefix", Usage: "WAV filename prefix, defaults to the output filename"},
				},
			},
			{
				Name:   "wiggles",
				Usage:  "plot the normalized sensor waveforms of a station",
				Before: a.loadConfig,
				Action: a.wiggles,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "station", Aliases: []string{"s"}, Usage: "Station ID", Required: true},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Path to the output image"},
				},
			},
			{
				Name:   "mesh",
				Usage:  "render the time-frequency meshes of every station",
				Before: a.loadConfig,
				Action: a.mesh,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Path to the output image, without extension"},
					&cli.BoolFlag{Name: "log-frequency", Usage: "Logarithmic frequency axis"},
					&cli.Float64Flag{Name: "min-bits", Usage: "Define a manual lower colour bound"},
					&cli.Float64Flag{Name: "max-bits", Usage: "Define a manual upper colour bound"},
				},
			},
			{
				Name:   "snapshots",
				Usage:  "list the stored snapshots",
				Before: a.loadConfig,
				Action: a.snapshots,
			},
			{
				Name:  "version",
				Usage: "print the library version",
				Action: func(c *cli.Context) error {
					return version.Print(c.App.Writer)
				},
			},
		},
	}
}

func (a *App) loadConfig(c *cli.Context) error {
	path := c.String("config")
	if path == "" {
		return fmt.Errorf("no configuration file provided")
	}

	file, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration file '%s': %w", path, err)
	}
	a.logLevel.Set(file.Settings.Level())

	cfg, err := file.Config(a.logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.file, a.config = file, cfg
	a.logger.Debug("configuration loaded", slog.String("config", cfg.Pretty()))
	return nil
}
