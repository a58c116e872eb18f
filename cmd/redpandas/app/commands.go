package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/roman-kulish/redpandas/internal/ensonify"
	"github.com/roman-kulish/redpandas/internal/frame"
	"github.com/roman-kulish/redpandas/internal/mesh"
	"github.com/roman-kulish/redpandas/internal/redvox"
	"github.com/roman-kulish/redpandas/internal/report"
	"github.com/roman-kulish/redpandas/internal/spectrum"
	"github.com/roman-kulish/redpandas/internal/storage"
	"github.com/roman-kulish/redpandas/internal/wiggles"
)

func (a *App) outputPath(suffix string) (string, error) {
	if err := os.MkdirAll(a.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return filepath.Join(a.config.OutputDir, a.config.OutputFilename+suffix), nil
}

func (a *App) build(c *cli.Context) (err error) {
	dw, err := a.loadDataWindow()
	if err != nil {
		return err
	}
	report.StationMetadata(dw, a.logger)

	f, err := a.buildFrame(dw, !c.Bool("no-tfr"))
	if err != nil {
		return err
	}

	if _, err = a.outputPath(""); err != nil {
		return err
	}
	store := storage.NewSqliteStore(a.config.SnapshotPath())
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing snapshot store: %w", cErr)
		}
	}()

	id, err := store.WriteSnapshot(c.Context, a.config.EventName, f)
	if err != nil {
		return err
	}

	a.logger.Info("snapshot stored",
		slog.Int64("id", id),
		slog.String("path", a.config.SnapshotPath()),
		slog.Int("stations", f.Len()),
		slog.Int("columns", len(f.Columns())))
	return nil
}

func (a *App) specs(_ *cli.Context) error {
	dw, err := a.loadDataWindow()
	if err != nil {
		return err
	}
	report.StationMetadata(dw, a.logger)

	path, err := a.outputPath("_station.csv")
	if err != nil {
		return err
	}
	if err = report.WriteStationSpecsFile(dw, path); err != nil {
		return err
	}

	a.logger.Info("station specifications written", slog.String("path", path))
	return nil
}

func (a *App) ensonify(c *cli.Context) error {
	f, err := a.loadFrame(c.Context, false)
	if err != nil {
		return err
	}

	opts := ensonify.Options{
		WavSampleRateHz: float64(a.file.Process.WavSampleRateHz),
		OutputDir:       a.config.OutputDir,
		FilenamePrefix:  c.String("prefix"),
		Workers:         a.file.Process.Workers,
		Logger:          a.logger,
	}
	if opts.FilenamePrefix == "" {
		opts.FilenamePrefix = a.config.OutputFilename
	}

	var names []string
	for _, col := range waveformColumns(f, a.config.SensorLabels) {
		n := 0
		for row := 0; row < f.Len(); row++ {
			n = max(n, channelCount(f, row, col.wf))
		}
		if n == 0 {
			continue
		}
		opts.SensorColumns = append(opts.SensorColumns, col.wf)
		opts.SampleRates = append(opts.SampleRates, col.sampleRate)
		names = append(names, channelNames(col.sensor, n)...)
	}
	if len(opts.SensorColumns) == 0 {
		return fmt.Errorf("no sensor data to ensonify")
	}

	opts.SensorNames = names
	if custom := c.StringSlice("names"); len(custom) > 0 {
		opts.SensorNames = custom
	}

	paths, err := ensonify.EnsonifySensors(c.Context, f, opts)
	if err != nil {
		return err
	}

	a.logger.Info("sensors ensonified",
		slog.String("files", humanize.Comma(int64(len(paths)))),
		slog.String("dir", a.config.OutputDir))
	return nil
}

func (a *App) wiggles(c *cli.Context) error {
	f, err := a.loadFrame(c.Context, false)
	if err != nil {
		return err
	}

	stationID := c.String("station")
	row, err := f.RowByValue(frame.StationIDLabel, stationID)
	if err != nil {
		return err
	}

	opts := wiggles.Options{
		StationID: stationID,
		Title:     fmt.Sprintf("%s, station %s", a.config.EventName, stationID),
		Color:     a.file.Render.WiggleColor,
	}
	for _, col := range waveformColumns(f, a.config.SensorLabels) {
		n := channelCount(f, row, col.wf)
		if n == 0 {
			continue
		}
		opts.Sensors = append(opts.Sensors, wiggles.Sensor{Wf: col.wf, Epoch: col.epoch})
		opts.SensorNames = append(opts.SensorNames, channelNames(col.sensor, n)...)
	}

	p, err := wiggles.PlotSensorWiggles(f, opts)
	if err != nil {
		return err
	}

	path := c.String("output")
	if path == "" {
		if path, err = a.outputPath(fmt.Sprintf("_%s_wiggles.png", stationID)); err != nil {
			return err
		}
	}
	if err = wiggles.Save(p, path, 0, 0); err != nil {
		return err
	}

	a.logger.Info("wiggles plotted", slog.String("station", stationID), slog.String("path", path))
	return nil
}

func (a *App) mesh(c *cli.Context) error {
	theme, err := mesh.ParseTheme(a.file.Render.Theme)
	if err != nil {
		return err
	}
	format, err := mesh.ParseImageFormat(a.file.Render.Format)
	if err != nil {
		return err
	}

	f, err := a.loadFrame(c.Context, true)
	if err != nil {
		return err
	}

	var panels []mesh.Panel
	for _, s := range redvox.SensorTypes {
		if slices.Contains(a.config.SensorLabels, string(s)) && f.HasColumn(spectrum.BitsLabel(string(s))) {
			panels = append(panels, mesh.PanelFor(string(s)))
		}
	}

	cfg := mesh.RenderConfig{
		Title:        a.config.EventName,
		LogFrequency: c.Bool("log-frequency"),
		ColorTheme:   theme,
	}
	if c.IsSet("min-bits") || c.IsSet("max-bits") {
		if !c.IsSet("min-bits") || !c.IsSet("max-bits") {
			return fmt.Errorf("both min-bits and max-bits are required for a manual colour range")
		}
		cfg.Bounds = &mesh.Bounds{Min: c.Float64("min-bits"), Max: c.Float64("max-bits")}
		cfg.Bounds.Mean = (cfg.Bounds.Min + cfg.Bounds.Max) / 2
	}

	renderer, err := mesh.NewRenderer(cfg)
	if err != nil {
		return err
	}
	img, err := renderer.Render(f, frame.StationIDLabel, panels)
	if err != nil {
		return err
	}

	path := c.String("output")
	if path == "" {
		if path, err = a.outputPath("_mesh"); err != nil {
			return err
		}
	}
	path = strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(format)
	if err = mesh.SaveImage(img, path, format); err != nil {
		return err
	}

	a.logger.Info("mesh rendered",
		slog.String("path", path),
		slog.String("theme", string(theme)),
		slog.Int("panels", len(panels)))
	return nil
}

func (a *App) snapshots(c *cli.Context) (err error) {
	store := storage.NewSqliteStore(a.config.SnapshotPath())
	defer func() {
		if cErr := store.Close(); cErr != nil && err == nil {
			err = fmt.Errorf("closing snapshot store: %w", cErr)
		}
	}()

	list, err := store.Snapshots(c.Context)
	if err != nil {
		return err
	}
	for _, s := range list {
		fmt.Fprintf(c.App.Writer, "%d\t%s\t%s\t%d rows\t%d columns\n",
			s.ID, s.EventName, humanize.Time(s.CreatedAt), s.NumRows, len(s.Columns))
	}
	return nil
}
