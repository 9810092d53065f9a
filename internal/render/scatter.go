package render

import (
	"fmt"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/stats"
)

// Scatter canvas.
const (
	ScatterWidth  = 700.0
	ScatterHeight = 500.0

	pointRadius  = 6.0
	pointOpacity = 0.75
)

var scatterMargin = Margin{Top: 40, Right: 180, Bottom: 70, Left: 70}

// CropFilter restricts the scatter plot to one crop, or shows them all.
type CropFilter string

// AllCrops shows every crop.
const AllCrops CropFilter = "Toutes"

// ParseCropFilter accepts "all"/"Toutes" (or empty) and any crop name.
func ParseCropFilter(s string) CropFilter {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") || strings.EqualFold(s, string(AllCrops)) {
		return AllCrops
	}
	c, _ := domain.ParseCrop(s)
	return CropFilter(c)
}

// Crop returns the filtered crop; ok is false for AllCrops.
func (f CropFilter) Crop() (domain.Crop, bool) {
	if f == AllCrops || f == "" {
		return "", false
	}
	return domain.Crop(f), true
}

// Label is the option text of the filter control.
func (f CropFilter) Label() string {
	if _, ok := f.Crop(); !ok {
		return "Toutes les cultures"
	}
	return string(f)
}

// FilterOptions lists AllCrops followed by the crops present in records.
func FilterOptions(records []domain.YieldRecord) []CropFilter {
	opts := []CropFilter{AllCrops}
	for _, c := range stats.CropsIn(records) {
		opts = append(opts, CropFilter(c))
	}
	return opts
}

// ScatterPoint is one record of the scatter plot.
type ScatterPoint struct {
	Crop    domain.Crop
	Year    int
	Temp    float64 // temperature anomaly, °C
	Yield   float64 // yield anomaly, %
	At      Point
	Radius  float64
	Color   drawing.Color
	Opacity float64
	Tooltip *Tooltip
}

// RegressionLine is the fitted line of one crop.
type RegressionLine struct {
	Crop       domain.Crop
	Fit        stats.Regression
	Line       Line
	Count      int
	XMin, XMax float64 // data extent the line spans
}

// ScatterScene plots yield anomaly against temperature anomaly.
type ScatterScene struct {
	Region  string
	Title   string
	Width   float64
	Height  float64
	Margin  Margin
	NoData  bool
	Message string

	Filter  CropFilter
	Options []CropFilter

	XAxis       Axis
	YAxis       Axis
	References  []Line
	Points      []ScatterPoint
	Regressions []RegressionLine
	LegendTitle string
	Legend      []LegendItem
	OverlayID   string
}

// Scatter renders the selected region's temperature/yield scatter plot.
type Scatter struct {
	store     *domain.RecordStore
	selection *domain.Selection
	overlays  *Overlays
}

// NewScatter creates a scatter renderer. It unmounts its overlay when the
// selection is cleared.
func NewScatter(store *domain.RecordStore, selection *domain.Selection, overlays *Overlays) *Scatter {
	selection.Subscribe(func(region string) {
		if region == "" {
			overlays.Release(OwnerScatter)
		}
	})
	return &Scatter{store: store, selection: selection, overlays: overlays}
}

// Render returns nil when nothing is selected.
func (s *Scatter) Render(filter CropFilter) *ScatterScene {
	region, ok := s.selection.Region()
	if !ok {
		s.overlays.Release(OwnerScatter)
		return nil
	}
	scene := BuildScatter(region, s.store.YieldsForRegion(region), filter)
	if scene.NoData {
		s.overlays.Release(OwnerScatter)
		return scene
	}
	scene.OverlayID = s.overlays.Acquire(OwnerScatter).ID
	return scene
}

// BuildScatter lays out the scatter plot of one region's records. A filter
// naming a crop absent from records falls back to AllCrops.
func BuildScatter(region string, records []domain.YieldRecord, filter CropFilter) *ScatterScene {
	m := scatterMargin
	scene := &ScatterScene{
		Region:      region,
		Title:       region + " - Impact de la température sur les rendements",
		Width:       ScatterWidth,
		Height:      ScatterHeight,
		Margin:      m,
		Filter:      AllCrops,
		Options:     FilterOptions(records),
		LegendTitle: "Cultures:",
	}
	if len(records) == 0 {
		scene.NoData = true
		scene.Message = NoDataMessage
		return scene
	}

	filtered := records
	if crop, ok := filter.Crop(); ok {
		if rows := stats.FilterCrop(records, crop); len(rows) > 0 {
			filtered = rows
			scene.Filter = filter
		}
	}

	left, right := m.Left, ScatterWidth-m.Right
	top, bottom := m.Top, ScatterHeight-m.Bottom

	x0, x1, _ := stats.Extent(filtered, domain.FieldTempAnomaly)
	y0, y1, _ := stats.Extent(filtered, domain.FieldYieldAnomaly)
	x := NewLinearScale(x0, x1, left, right).Padded(1).Nice(10)
	y := NewLinearScale(y0, y1, bottom, top).Padded(1).Nice(10)

	scene.XAxis = newAxis(AxisBottom, "Anomalie de température (°C)", x, x.Ticks(8), "", ColorLabel)
	scene.YAxis = newAxis(AxisLeft, "Anomalie de rendement (%)", y, y.Ticks(8), "", ColorLabel)
	scene.References = []Line{
		{From: Point{X: x.Map(0), Y: top}, To: Point{X: x.Map(0), Y: bottom}, Color: ColorReference, Width: 1.5, Dash: []float64{5, 5}, Opacity: 1},
		{From: Point{X: left, Y: y.Map(0)}, To: Point{X: right, Y: y.Map(0)}, Color: ColorReference, Width: 1.5, Dash: []float64{5, 5}, Opacity: 1},
	}

	for _, r := range filtered {
		scene.Points = append(scene.Points, ScatterPoint{
			Crop:    r.Crop,
			Year:    r.Year,
			Temp:    r.TempAnomalyC,
			Yield:   r.YieldAnomalyPct,
			At:      Point{X: x.Map(r.TempAnomalyC), Y: y.Map(r.YieldAnomalyPct)},
			Radius:  pointRadius,
			Color:   CropColor(r.Crop),
			Opacity: pointOpacity,
			Tooltip: pointTooltip(r),
		})
	}

	for _, crop := range stats.CropsIn(filtered) {
		rows := stats.FilterCrop(filtered, crop)
		if len(rows) < 2 {
			continue
		}
		color := CropColor(crop)
		fit := stats.LinearRegression(rows, domain.FieldTempAnomaly, domain.FieldYieldAnomaly)
		if fit == nil {
			// No spread in temperature: no line, but the crop keeps its legend entry.
			scene.Legend = append(scene.Legend, LegendItem{
				Label: string(crop),
				Color: color,
				Lines: []string{"r indéfini", fmt.Sprintf("n = %d points", len(rows))},
			})
			continue
		}
		lo, hi, _ := stats.Extent(rows, domain.FieldTempAnomaly)
		scene.Regressions = append(scene.Regressions, RegressionLine{
			Crop:  crop,
			Fit:   *fit,
			Count: len(rows),
			XMin:  lo,
			XMax:  hi,
			Line: Line{
				From:    Point{X: x.Map(lo), Y: y.Map(fit.At(lo))},
				To:      Point{X: x.Map(hi), Y: y.Map(fit.At(hi))},
				Color:   color,
				Width:   2.5,
				Dash:    []float64{5, 3},
				Opacity: 0.7,
			},
		})
		scene.Legend = append(scene.Legend, LegendItem{
			Label: string(crop),
			Color: color,
			Dash:  []float64{5, 3},
			Lines: []string{
				fmt.Sprintf("Corrélation: %.3f", fit.R),
				fmt.Sprintf("R² = %.3f", fit.R2),
				fmt.Sprintf("n = %d points", len(rows)),
			},
		})
	}
	return scene
}

func pointTooltip(r domain.YieldRecord) *Tooltip {
	return &Tooltip{
		Title: string(r.Crop),
		Lines: []string{
			fmt.Sprintf("Année: %d", r.Year),
			"Anomalie temp: " + signed(r.TempAnomalyC, 2) + "°C",
			"Anomalie rendement: " + signed(r.YieldAnomalyPct, 1) + "%",
			"Anomalie précip: " + signed(r.PrecipForDisplay(), 1) + "%",
			fmt.Sprintf("Rendement: %.1f q/ha", r.YieldQuintalsPerHa),
		},
	}
}
