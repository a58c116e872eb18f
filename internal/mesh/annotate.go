package mesh

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi            = 96.0
	tickMarkHeight = 5
	pixelsPerLabel = 120.0
	lineSpacing    = 1.3
)

// meshInfo is everything the annotator needs to label a rendered image
type meshInfo struct {
	title      string
	stations   []string
	strips     []strip
	areas      []image.Rectangle
	tMin, tMax float64
	fMin, fMax float64
	bounds     Bounds
}

type annotatorConfig struct {
	FontSize float64
	Borders  BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, info *meshInfo) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	ops := []struct {
		msg string
		fn  func(*image.RGBA, *meshInfo) error
	}{
		{"drawing title", a.drawTitle},
		{"drawing station labels", a.drawStripLabels},
		{"drawing time scale", a.drawTimeScale},
		{"drawing info bar", a.drawInfoBar},
	}
	for _, op := range ops {
		if err := op.fn(img, info); err != nil {
			return fmt.Errorf("%s: %w", op.msg, err)
		}
	}
	return nil
}

func (a *annotator) fontHeight() int {
	metrics := a.fontFace.Metrics()
	return (metrics.Ascent + metrics.Descent).Round()
}

func (a *annotator) drawTitle(_ *image.RGBA, info *meshInfo) error {
	if info.title == "" {
		return nil
	}
	textY := a.config.Borders.Top/2 + a.fontHeight()/2
	_, err := a.context.DrawString(info.title, freetype.Pt(a.config.Borders.Left, textY))
	return err
}

// drawStripLabels writes the station id on the first strip of every station
// and the sensor label on each strip.
func (a *annotator) drawStripLabels(img *image.RGBA, info *meshInfo) error {
	lineHeight := int(float64(a.fontHeight()) * lineSpacing)

	var previous string
	for i, s := range info.strips {
		area := info.areas[i]
		y := area.Min.Y + a.fontHeight()

		if s.station != previous {
			previous = s.station
			if _, err := a.context.DrawString(s.station, freetype.Pt(8, y)); err != nil {
				return err
			}
			y += lineHeight
		}
		if _, err := a.context.DrawString(s.label, freetype.Pt(16, y)); err != nil {
			return err
		}

		// frequency extremes against the strip edges
		top := humanHz(s.frequency[len(s.frequency)-1])
		width := font.MeasureString(a.fontFace, top).Round()
		if _, err := a.context.DrawString(top, freetype.Pt(area.Min.X-width-tickMarkHeight-2, area.Min.Y+a.fontHeight())); err != nil {
			return err
		}
		for x := area.Min.X - tickMarkHeight; x < area.Min.X; x++ {
			img.Set(x, area.Min.Y, color.Black)
			img.Set(x, area.Max.Y-1, color.Black)
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, info *meshInfo) error {
	if len(info.areas) == 0 {
		return nil
	}
	last := info.areas[len(info.areas)-1]
	width := last.Dx()
	span := info.tMax - info.tMin
	step := niceTimeStep(span, width)

	textY := last.Max.Y + tickMarkHeight + a.fontHeight() + 2
	for t := math.Ceil(info.tMin/step) * step; t <= info.tMax; t += step {
		x := last.Min.X + int((t-info.tMin)/span*float64(width-1))

		for y := last.Max.Y; y < last.Max.Y+tickMarkHeight; y++ {
			img.Set(x, y, color.Black)
		}

		label := formatSeconds(t)
		w := font.MeasureString(a.fontFace, label).Round()
		if _, err := a.context.DrawString(label, freetype.Pt(x-w/2, textY)); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, info *meshInfo) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Stations: %d", len(info.stations)))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Freq: %s - %s", humanHz(info.fMin), humanHz(info.fMax)))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("log2(Power): %.1f to %.1f", info.bounds.Min, info.bounds.Max))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Time: %s from first sample", formatSeconds(info.tMax-info.tMin)))

	metrics := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - metrics.Descent.Round() - 4

	if _, err := a.context.DrawString(sb.String(), freetype.Pt(a.config.Borders.Left, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

func niceTimeStep(span float64, width int) float64 {
	steps := []float64{0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 15, 30, 60, 120, 300, 600, 900, 1800, 3600}

	target := span / math.Max(1, float64(width)/pixelsPerLabel)
	for _, s := range steps {
		if s >= target {
			return s
		}
	}
	return steps[len(steps)-1] * math.Ceil(target/steps[len(steps)-1])
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%s s", humanize.FtoaWithDigits(s, 2))
}

func humanHz(hz float64) string {
	v, suffix := humanize.ComputeSI(hz)
	return fmt.Sprintf("%0.2f %sHz", v, suffix)
}
