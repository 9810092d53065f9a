// Package svg encodes render scenes as SVG documents and the interactive
// HTML page that embeds them.
package svg

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/agro-climate-viz/internal/render"
)

// ContentType is the media type of the standalone documents.
const ContentType = "image/svg+xml"

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

var funcs = template.FuncMap{
	"num":    num,
	"hex":    func(c drawing.Color) string { return render.Hex(c) },
	"dash":   dash,
	"points": points,
	"tip":    tip,
	"add":    func(a, b float64) float64 { return a + b },
	"half":   func(v float64) float64 { return v / 2 },
	"fixed":  func(prec int, v float64) string { return strconv.FormatFloat(v, 'f', prec, 64) },
	"signed": signed,
	"row":    func(i int, step, base float64) float64 { return base + float64(i)*step },
}

var templates = template.Must(template.New("svg").Funcs(funcs).Parse(sceneTemplates + pageTemplate))

// Map writes the choropleth as a standalone SVG document. With links set,
// each region is wrapped in a link that selects it.
func Map(w io.Writer, s *render.MapScene, links bool) error {
	return write(w, "map", newMapView(s, links))
}

// Timeline writes the timeline as a standalone SVG document.
func Timeline(w io.Writer, s *render.TimelineScene) error {
	return write(w, "timeline", newTimelineView(s))
}

// Scatter writes the scatter plot as a standalone SVG document.
func Scatter(w io.Writer, s *render.ScatterScene) error {
	return write(w, "scatter", newScatterView(s))
}

func write(w io.Writer, name string, data any) error {
	if _, err := io.WriteString(w, xmlHeader); err != nil {
		return err
	}
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("encode %s svg: %w", name, err)
	}
	return nil
}

// --- views ---

type mapView struct {
	*render.MapScene
	Links bool
}

func newMapView(s *render.MapScene, links bool) mapView {
	return mapView{MapScene: s, Links: links}
}

type tickView struct {
	X1, Y1, X2, Y2 float64
	TX, TY         float64
	Anchor         string
	Label          string
}

type axisView struct {
	X1, Y1, X2, Y2 float64
	Color          drawing.Color
	Ticks          []tickView
	TitleX, TitleY float64
	Rotate         float64
	Title          string
}

// newAxisView lays an axis out along the edge of the plotting area.
func newAxisView(ax render.Axis, width, height float64, m render.Margin) axisView {
	left, top := m.Left, m.Top
	right, bottom := width-m.Right, height-m.Bottom
	v := axisView{Color: ax.Color, Title: ax.Label}

	switch ax.Side {
	case render.AxisBottom:
		v.X1, v.Y1, v.X2, v.Y2 = left, bottom, right, bottom
		for _, t := range ax.Ticks {
			v.Ticks = append(v.Ticks, tickView{
				X1: t.Pos, Y1: bottom, X2: t.Pos, Y2: bottom + 6,
				TX: t.Pos, TY: bottom + 20, Anchor: "middle", Label: t.Label,
			})
		}
		v.TitleX, v.TitleY = (left+right)/2, bottom+45
	case render.AxisLeft:
		v.X1, v.Y1, v.X2, v.Y2 = left, top, left, bottom
		for _, t := range ax.Ticks {
			v.Ticks = append(v.Ticks, tickView{
				X1: left - 6, Y1: t.Pos, X2: left, Y2: t.Pos,
				TX: left - 9, TY: t.Pos + 4, Anchor: "end", Label: t.Label,
			})
		}
		v.TitleX, v.TitleY, v.Rotate = left-55, (top+bottom)/2, -90
	case render.AxisRight:
		v.X1, v.Y1, v.X2, v.Y2 = right, top, right, bottom
		for _, t := range ax.Ticks {
			v.Ticks = append(v.Ticks, tickView{
				X1: right, Y1: t.Pos, X2: right + 6, Y2: t.Pos,
				TX: right + 9, TY: t.Pos + 4, Anchor: "start", Label: t.Label,
			})
		}
		v.TitleX, v.TitleY, v.Rotate = right+60, (top+bottom)/2, -90
	}
	return v
}

type timelineView struct {
	*render.TimelineScene
	X, Left, Right axisView
	LegendX        float64
	LegendY        float64
}

func newTimelineView(s *render.TimelineScene) timelineView {
	v := timelineView{TimelineScene: s}
	if s.NoData {
		return v
	}
	v.X = newAxisView(s.XAxis, s.Width, s.Height, s.Margin)
	v.Left = newAxisView(s.LeftAxis, s.Width, s.Height, s.Margin)
	v.Right = newAxisView(s.RightAxis, s.Width, s.Height, s.Margin)
	v.LegendX, v.LegendY = s.Margin.Left, s.Margin.Top-25
	return v
}

type scatterView struct {
	*render.ScatterScene
	X, Y    axisView
	LegendX float64
	LegendY float64
}

func newScatterView(s *render.ScatterScene) scatterView {
	v := scatterView{ScatterScene: s}
	if s.NoData {
		return v
	}
	v.X = newAxisView(s.XAxis, s.Width, s.Height, s.Margin)
	v.Y = newAxisView(s.YAxis, s.Width, s.Height, s.Margin)
	v.LegendX, v.LegendY = s.Width-s.Margin.Right+20, s.Margin.Top
	return v
}

// --- template helpers ---

// num prints a coordinate with at most two decimals.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func dash(d []float64) string {
	if len(d) == 0 {
		return "none"
	}
	parts := make([]string, len(d))
	for i, v := range d {
		parts[i] = num(v)
	}
	return strings.Join(parts, ",")
}

func points(pts []render.SeriesPoint) string {
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(num(p.At.X))
		b.WriteByte(',')
		b.WriteString(num(p.At.Y))
	}
	return b.String()
}

func tip(t *render.Tooltip) string {
	if t == nil {
		return ""
	}
	return strings.Join(append([]string{t.Title}, t.Lines...), "\n")
}

func signed(prec int, v float64) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if v > 0 && strings.Trim(s, "0.") != "" {
		return "+" + s
	}
	return s
}
