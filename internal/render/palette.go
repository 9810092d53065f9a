package render

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

var (
	ColorBackground    = drawing.ColorFromHex("e8f4f8")
	ColorNoData        = drawing.ColorFromHex("cccccc")
	ColorSelectedEdge  = drawing.ColorFromHex("1a1a2e")
	ColorRegionEdge    = drawing.ColorFromHex("ffffff")
	ColorLabel         = drawing.ColorFromHex("1a1a2e")
	ColorValueLabel    = drawing.ColorFromHex("c0392b")
	ColorClimateSeries = drawing.ColorFromHex("c0392b")
	ColorReference     = drawing.ColorFromHex("95a5a6")
	ColorZeroLine      = drawing.ColorFromHex("cccccc")
	ColorUnknownCrop   = drawing.ColorFromHex("7f8c8d")
)

var cropColors = map[domain.Crop]drawing.Color{
	domain.CropWheat:     drawing.ColorFromHex("e74c3c"),
	domain.CropCorn:      drawing.ColorFromHex("f39c12"),
	domain.CropSunflower: drawing.ColorFromHex("2ecc71"),
}

// CropColor returns the fixed color of a chart crop; other crops are gray.
func CropColor(c domain.Crop) drawing.Color {
	if col, ok := cropColors[c]; ok {
		return col
	}
	return ColorUnknownCrop
}

// Hex formats a color as #rrggbb.
func Hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// signed formats v with prec decimals and a leading "+" for positive values.
func signed(v float64, prec int) string {
	s := fmt.Sprintf("%.*f", prec, v)
	if v > 0 && s != fmt.Sprintf("%.*f", prec, 0.0) {
		return "+" + s
	}
	return s
}

// tickLabel trims float noise from a tick value.
func tickLabel(v float64, suffix string) string {
	if math.Abs(v) < 1e-12 {
		v = 0
	}
	return fmt.Sprintf("%g%s", v, suffix)
}
