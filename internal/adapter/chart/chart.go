// Package chart exports the detail charts through go-chart, as PNG images or
// as go-chart's own SVG rendition.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/couchcryptid/agro-climate-viz/internal/render"
)

// ErrNoData is returned for scenes that have nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Format is an export file format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg" in any case.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case PNG:
		return PNG, true
	case SVG:
		return SVG, true
	default:
		return "", false
	}
}

// ContentType is the media type of the exported file.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() gochart.RendererProvider {
	if f == SVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Timeline exports the timeline. The climate series is drawn against the
// secondary y axis.
func Timeline(w io.Writer, s *render.TimelineScene, f Format) error {
	if s == nil || s.NoData {
		return ErrNoData
	}

	var series []gochart.Series
	for _, sr := range s.Series {
		if len(sr.Points) == 0 {
			continue
		}
		xs := make([]float64, len(sr.Points))
		ys := make([]float64, len(sr.Points))
		for i, p := range sr.Points {
			xs[i], ys[i] = float64(p.Year), p.Value
		}
		style := gochart.Style{
			StrokeColor:     sr.Color,
			StrokeWidth:     sr.Width,
			StrokeDashArray: sr.Dash,
		}
		if sr.Dots {
			style.DotColor = sr.Color
			style.DotWidth = 3
		}
		cs := gochart.ContinuousSeries{Name: sr.Name, XValues: xs, YValues: ys, Style: style}
		if sr.Axis == render.AxisRight {
			cs.YAxis = gochart.YAxisSecondary
		}
		series = append(series, cs)
	}
	if len(series) == 0 {
		return ErrNoData
	}

	ch := gochart.Chart{
		Title:          s.Region,
		Width:          int(s.Width),
		Height:         int(s.Height),
		Background:     gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:          xAxis(s.XAxis),
		YAxis:          yAxis(s.LeftAxis),
		YAxisSecondary: yAxis(s.RightAxis),
		Series:         series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return renderChart(w, &ch, f)
}

// Scatter exports the scatter plot with one dot series and one fitted line
// per crop.
func Scatter(w io.Writer, s *render.ScatterScene, f Format) error {
	if s == nil || s.NoData || len(s.Points) == 0 {
		return ErrNoData
	}

	byCrop := map[string]*gochart.ContinuousSeries{}
	var series []gochart.Series
	var order []string
	for _, p := range s.Points {
		name := string(p.Crop)
		cs, ok := byCrop[name]
		if !ok {
			cs = &gochart.ContinuousSeries{
				Name: name,
				Style: gochart.Style{
					StrokeWidth: gochart.Disabled,
					DotWidth:    5,
					DotColor:    p.Color,
				},
			}
			byCrop[name] = cs
			order = append(order, name)
		}
		cs.XValues = append(cs.XValues, p.Temp)
		cs.YValues = append(cs.YValues, p.Yield)
	}
	for _, name := range order {
		series = append(series, *byCrop[name])
	}

	for _, rl := range s.Regressions {
		series = append(series, gochart.ContinuousSeries{
			Name:    fmt.Sprintf("%s (r = %.3f)", rl.Crop, rl.Fit.R),
			XValues: []float64{rl.XMin, rl.XMax},
			YValues: []float64{rl.Fit.At(rl.XMin), rl.Fit.At(rl.XMax)},
			Style: gochart.Style{
				StrokeColor:     rl.Line.Color,
				StrokeWidth:     rl.Line.Width,
				StrokeDashArray: rl.Line.Dash,
			},
		})
	}

	ch := gochart.Chart{
		Title:      s.Title,
		Width:      int(s.Width),
		Height:     int(s.Height),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      xAxis(s.XAxis),
		YAxis:      yAxis(s.YAxis),
		Series:     series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return renderChart(w, &ch, f)
}

func renderChart(w io.Writer, ch *gochart.Chart, f Format) error {
	if err := ch.Render(f.provider(), w); err != nil {
		return fmt.Errorf("render %s chart: %w", f, err)
	}
	return nil
}

func xAxis(a render.Axis) gochart.XAxis {
	return gochart.XAxis{
		Name:  a.Label,
		Range: &gochart.ContinuousRange{Min: a.Scale.D0, Max: a.Scale.D1},
		Ticks: ticks(a),
	}
}

func yAxis(a render.Axis) gochart.YAxis {
	return gochart.YAxis{
		Name:  a.Label,
		Range: &gochart.ContinuousRange{Min: a.Scale.D0, Max: a.Scale.D1},
		Ticks: ticks(a),
	}
}

func ticks(a render.Axis) []gochart.Tick {
	out := make([]gochart.Tick, 0, len(a.Ticks))
	for _, t := range a.Ticks {
		out = append(out, gochart.Tick{Value: t.Value, Label: t.Label})
	}
	return out
}
