// Package render turns the joined datasets and the current selection into
// scene values: a choropleth map of regional warming, a per-region timeline
// of yield and climate anomalies, and a temperature/yield scatter plot.
//
// A scene is a complete description of one chart in canvas pixels. Renderers
// rebuild it from scratch on every call; encoders in internal/adapter turn it
// into SVG or PNG.
package render

import "github.com/wcharczuk/go-chart/v2/drawing"

// Overlay owner names.
const (
	OwnerMap      = "map"
	OwnerTimeline = "timeline"
	OwnerScatter  = "scatter"
)

// NoDataMessage is shown in place of a detail chart when the selected region
// has no yield records.
const NoDataMessage = "Aucune donnée disponible pour cette région."

// Point is a canvas position.
type Point struct {
	X, Y float64
}

// Margin is the space around a chart's plotting area.
type Margin struct {
	Top, Right, Bottom, Left float64
}

// Tooltip is the text of a hover overlay.
type Tooltip struct {
	Title string
	Lines []string
}

// Line is a straight stroke.
type Line struct {
	From, To Point
	Color    drawing.Color
	Width    float64
	Dash     []float64
	Opacity  float64
}

// Tick is one labelled position on an axis.
type Tick struct {
	Value float64
	Pos   float64
	Label string
}

// AxisSide places an axis around the plotting area.
type AxisSide string

const (
	AxisBottom AxisSide = "bottom"
	AxisLeft   AxisSide = "left"
	AxisRight  AxisSide = "right"
)

// Axis is a ruled scale with its title.
type Axis struct {
	Side  AxisSide
	Label string
	Scale LinearScale
	Ticks []Tick
	Color drawing.Color
}

// LegendItem is one swatch of a categorical legend.
type LegendItem struct {
	Label string
	Color drawing.Color
	Dash  []float64
	Lines []string // extra lines under the label
}

// GradientLegend describes the map's continuous color legend.
type GradientLegend struct {
	Title    string
	X, Y     float64
	Width    float64
	Height   float64
	From, To drawing.Color
	MinLabel string
	MaxLabel string
}

func newAxis(side AxisSide, label string, s LinearScale, values []float64, suffix string, color drawing.Color) Axis {
	ax := Axis{Side: side, Label: label, Scale: s, Color: color}
	for _, v := range values {
		ax.Ticks = append(ax.Ticks, Tick{Value: v, Pos: s.Map(v), Label: tickLabel(v, suffix)})
	}
	return ax
}
