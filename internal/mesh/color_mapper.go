package mesh

import (
	"image/color"
	"math"
)

// DefaultColorMapSize is the number of pre-computed colours
const DefaultColorMapSize = 256

// InvalidColor is used for values that are not finite
var InvalidColor color.Color = color.Black

// ColorMapper maps mesh values to colours of a theme within fixed bounds
type ColorMapper struct {
	colorMap    []color.Color // Pre-computed colors
	themeName   ColorTheme
	boundsMin   float64
	boundsRange float64
}

// NewColorMapper creates a mapper with DefaultColorMapSize colours.
func NewColorMapper(theme ColorTheme, bounds Bounds) *ColorMapper {
	return NewColorMapperWithSize(theme, bounds, DefaultColorMapSize)
}

// NewColorMapperWithSize creates a mapper with the given number of colours.
func NewColorMapperWithSize(theme ColorTheme, bounds Bounds, size int) *ColorMapper {
	if size < 2 {
		size = DefaultColorMapSize
	}

	fn := themeFunc(theme)
	cm := &ColorMapper{
		colorMap:  make([]color.Color, size),
		themeName: theme,
	}
	for i := range cm.colorMap {
		cm.colorMap[i] = fn(float64(i) / float64(size-1))
	}
	cm.UpdateBounds(bounds)
	return cm
}

// UpdateBounds changes the value range covered by the colour map.
func (cm *ColorMapper) UpdateBounds(bounds Bounds) {
	cm.boundsMin = bounds.Min
	cm.boundsRange = bounds.Max - bounds.Min
}

// Color returns the colour of v. Values outside the bounds are clamped.
func (cm *ColorMapper) Color(v float64) color.Color {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return InvalidColor
	}
	if cm.boundsRange <= 0 {
		return cm.colorMap[len(cm.colorMap)-1]
	}

	index := int((v - cm.boundsMin) / cm.boundsRange * float64(len(cm.colorMap)-1))
	switch {
	case index < 0:
		return cm.colorMap[0]
	case index >= len(cm.colorMap):
		return cm.colorMap[len(cm.colorMap)-1]
	}
	return cm.colorMap[index]
}

// ThemeName returns the current color theme name
func (cm *ColorMapper) ThemeName() ColorTheme {
	return cm.themeName
}

// Size returns the color map size
func (cm *ColorMapper) Size() int {
	return len(cm.colorMap)
}
