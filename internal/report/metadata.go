package report

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/redpandas/internal/redvox"
)

// StationMetadata logs a summary of every station and its sensors.
func StationMetadata(dw *redvox.DataWindow, logger *slog.Logger) {
	logger.Info("data window",
		slog.String("event", dw.EventName),
		slog.String("sdkVersion", dw.SDKVersion),
		slog.Int("stations", len(dw.Stations)))

	for _, st := range dw.Stations {
		md := st.Metadata
		attrs := []any{
			slog.String("id", st.ID),
			slog.Group("device",
				slog.String("make", md.Make),
				slog.String("model", md.Model),
				slog.String("os", md.OS.String()),
				slog.String("osVersion", md.OSVersion),
				slog.String("appVersion", md.AppVersion)),
		}
		if st.FirstDataTimestamp > 0 && st.LastDataTimestamp > st.FirstDataTimestamp {
			start := redvox.TimeFromMicros(st.FirstDataTimestamp)
			end := redvox.TimeFromMicros(st.LastDataTimestamp)
			attrs = append(attrs,
				slog.Time("firstData", start),
				slog.Duration("duration", end.Sub(start).Round(time.Millisecond)))
		}
		logger.Info("station", attrs...)

		for _, s := range redvox.SensorTypes {
			sensor := st.Sensor(s)
			if sensor.NumSamples() == 0 {
				continue
			}
			logger.Info("sensor",
				slog.String("station", st.ID),
				slog.String("type", string(s)),
				slog.String("name", sensor.Name),
				slog.String("rate", humanize.SIWithDigits(sensor.SampleRateHz, 2, "Hz")),
				slog.String("samples", humanize.Comma(int64(sensor.NumSamples()))),
				slog.Float64("intervalStdS", sensor.SampleIntervalStdS))
		}
	}
}
