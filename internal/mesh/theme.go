package mesh

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorTheme names a colour scheme for mesh values
type ColorTheme string

const (
	ClassicTheme   ColorTheme = "classic"   // Blue to red
	GrayscaleTheme ColorTheme = "grayscale" // Black to white
	JungleTheme    ColorTheme = "jungle"    // Dark green to yellow
	ThermalTheme   ColorTheme = "thermal"   // Black to red to yellow to white
	MarineTheme    ColorTheme = "marine"    // Deep blue to cyan to white
	SpectralTheme  ColorTheme = "spectral"  // Hue sweep from blue to red at constant value
	InfernoTheme   ColorTheme = "inferno"   // Perceptual blend, black to purple to yellow
	EnhancedTheme  ColorTheme = "enhanced"  // Black to blue to cyan to yellow to red

	DefaultTheme = InfernoTheme
)

// Themes lists the supported themes.
var Themes = []ColorTheme{
	ClassicTheme, GrayscaleTheme, JungleTheme, ThermalTheme,
	MarineTheme, SpectralTheme, InfernoTheme, EnhancedTheme,
}

// ParseTheme returns the theme with the given name.
func ParseTheme(name string) (ColorTheme, error) {
	if name == "" {
		return DefaultTheme, nil
	}
	for _, t := range Themes {
		if string(t) == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown color theme: %s", name)
}

// HSV represents a color in HSV color space
type HSV struct {
	H float64 // Hue [0-360]
	S float64 // Saturation [0-1]
	V float64 // Value [0-1]
}

// RGB converts the colour to RGB.
func (hsv HSV) RGB() color.Color {
	return colorful.Hsv(math.Mod(hsv.H, 360), clamp01(hsv.S), clamp01(hsv.V)).Clamped()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

var infernoStops = []colorful.Color{
	{R: 0, G: 0, B: 0.016},
	{R: 0.341, G: 0.063, B: 0.431},
	{R: 0.735, G: 0.216, B: 0.329},
	{R: 0.976, G: 0.557, B: 0.035},
	{R: 0.988, G: 1, B: 0.643},
}

// themeFunc returns the colour of a normalized value in [0, 1].
func themeFunc(theme ColorTheme) func(float64) color.Color {
	switch theme {
	case ClassicTheme:
		return func(v float64) color.Color {
			return HSV{H: 240 - (v * 240), S: 0.9 + (v * 0.1), V: math.Pow(v, 0.7)}.RGB()
		}

	case GrayscaleTheme:
		return func(v float64) color.Color {
			g := uint8(math.Pow(v, 0.7) * 255)
			return color.RGBA{R: g, G: g, B: g, A: 0xff}
		}

	case JungleTheme:
		return func(v float64) color.Color {
			return HSV{H: 120 - (v * 60), S: 1.0, V: 0.3 + (math.Pow(v, 0.6) * 0.7)}.RGB()
		}

	case ThermalTheme:
		return func(v float64) color.Color {
			switch {
			case v < 0.33:
				return color.RGBA{R: uint8(v * 3 * 255), A: 0xff}
			case v < 0.66:
				return color.RGBA{R: 255, G: uint8((v - 0.33) * 3 * 255), A: 0xff}
			default:
				return color.RGBA{R: 255, G: 255, B: uint8(math.Min(1, (v-0.66)*3) * 255), A: 0xff}
			}
		}

	case MarineTheme:
		return func(v float64) color.Color {
			return HSV{H: 240 - (v * 60), S: 1.0 - (v * 0.8), V: 0.3 + (math.Pow(v, 0.6) * 0.7)}.RGB()
		}

	case SpectralTheme:
		return func(v float64) color.Color {
			const hueStart, hueEnd = 236.0, 0.0
			return colorful.Hsv(hueStart-v*(hueStart-hueEnd), 1, 0.9)
		}

	case InfernoTheme:
		return func(v float64) color.Color {
			pos := v * float64(len(infernoStops)-1)
			i := int(pos)
			if i >= len(infernoStops)-1 {
				return infernoStops[len(infernoStops)-1].Clamped()
			}
			return infernoStops[i].BlendLab(infernoStops[i+1], pos-float64(i)).Clamped()
		}

	default:
		return enhanced
	}
}

// enhanced gives better differentiation in the lower range
func enhanced(v float64) color.Color {
	e := math.Pow(v, 0.7)

	switch {
	case v < 0.25:
		return HSV{H: 240, S: 1.0, V: e * 4}.RGB()
	case v < 0.5:
		return HSV{H: 240 - ((v - 0.25) * 240), S: 1.0, V: e * 1.5}.RGB()
	case v < 0.75:
		p := (v - 0.5) * 4
		return HSV{H: 180 - (p * 120), S: 1.0, V: e * 1.5}.RGB()
	default:
		p := (v - 0.75) * 4
		return HSV{H: 60 - (p * 60), S: 1.0, V: 1.0}.RGB()
	}
}
