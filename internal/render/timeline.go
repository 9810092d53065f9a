package render

import (
	"fmt"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/stats"
)

// Timeline canvas.
const (
	TimelineWidth  = 650.0
	TimelineHeight = 400.0
)

var timelineMargin = Margin{Top: 40, Right: 80, Bottom: 60, Left: 70}

// SeriesPoint is one vertex of a series.
type SeriesPoint struct {
	Year    int
	Value   float64
	At      Point
	Tooltip *Tooltip
}

// Series is one polyline of the timeline.
type Series struct {
	Name   string
	Crop   domain.Crop // empty for the climate series
	Axis   AxisSide
	Color  drawing.Color
	Width  float64
	Dash   []float64
	Dots   bool
	Points []SeriesPoint
}

// TimelineScene plots yield anomalies per crop and one climate anomaly over
// the years of the selected region.
type TimelineScene struct {
	Region   string
	Variable domain.ClimateVariable
	Width    float64
	Height   float64
	Margin   Margin
	NoData   bool
	Message  string

	XAxis     Axis
	LeftAxis  Axis
	RightAxis Axis
	ZeroLine  Line
	Series    []Series
	Legend    []LegendItem

	// ClimateSource is the crop whose rows feed the climate series.
	ClimateSource domain.Crop
	// Inconsistent is set when crops disagree on a year's climate anomaly.
	Inconsistent bool
	OverlayID    string
}

// Timeline renders the selected region's anomaly timeline.
type Timeline struct {
	store     *domain.RecordStore
	selection *domain.Selection
	overlays  *Overlays
}

// NewTimeline creates a timeline renderer. It unmounts its overlay when the
// selection is cleared.
func NewTimeline(store *domain.RecordStore, selection *domain.Selection, overlays *Overlays) *Timeline {
	t := &Timeline{store: store, selection: selection, overlays: overlays}
	selection.Subscribe(func(region string) {
		if region == "" {
			overlays.Release(OwnerTimeline)
		}
	})
	return t
}

// Render returns nil when nothing is selected.
func (t *Timeline) Render(variable domain.ClimateVariable) *TimelineScene {
	region, ok := t.selection.Region()
	if !ok {
		t.overlays.Release(OwnerTimeline)
		return nil
	}
	if variable == "" {
		variable = domain.VariableTemperature
	}
	scene := BuildTimeline(region, t.store.YieldsForRegion(region), variable)
	if scene.NoData {
		t.overlays.Release(OwnerTimeline)
		return scene
	}
	scene.OverlayID = t.overlays.Acquire(OwnerTimeline).ID
	return scene
}

// BuildTimeline lays out the timeline of one region's records.
func BuildTimeline(region string, records []domain.YieldRecord, variable domain.ClimateVariable) *TimelineScene {
	m := timelineMargin
	scene := &TimelineScene{
		Region:   region,
		Variable: variable,
		Width:    TimelineWidth,
		Height:   TimelineHeight,
		Margin:   m,
	}
	if len(records) == 0 {
		scene.NoData = true
		scene.Message = NoDataMessage
		return scene
	}

	left, right := m.Left, TimelineWidth-m.Right
	top, bottom := m.Top, TimelineHeight-m.Bottom

	y0, y1, _ := stats.Extent(records, domain.FieldYear)
	x := NewLinearScale(y0, y1, left, right).Padded(1)
	a0, a1, _ := stats.Extent(records, domain.FieldYieldAnomaly)
	yLeft := NewLinearScale(a0, a1, bottom, top).Padded(1).Nice(10)
	c0, c1, ok := stats.Extent(records, variable.Field())
	if !ok {
		c0, c1 = -1, 1
	}
	yRight := NewLinearScale(c0, c1, bottom, top).Padded(1).Nice(10)

	var years []float64
	for yr := math.Ceil(x.D0); yr <= x.D1; yr++ {
		years = append(years, yr)
	}
	scene.XAxis = newAxis(AxisBottom, "Année", x, years, "", ColorLabel)
	scene.LeftAxis = newAxis(AxisLeft, "Anomalie de rendement (%)", yLeft, yLeft.Ticks(10), "%", ColorLabel)
	scene.RightAxis = newAxis(AxisRight, variable.Label(), yRight, yRight.Ticks(10), variable.Unit(), ColorClimateSeries)
	scene.ZeroLine = Line{
		From:    Point{X: left, Y: yLeft.Map(0)},
		To:      Point{X: right, Y: yLeft.Map(0)},
		Color:   ColorZeroLine,
		Width:   1,
		Dash:    []float64{4},
		Opacity: 1,
	}

	for _, crop := range stats.CropsIn(records) {
		rows := byYear(stats.FilterCrop(records, crop))
		s := Series{Name: string(crop), Crop: crop, Axis: AxisLeft, Color: CropColor(crop), Width: 2, Dots: true}
		for _, r := range rows {
			s.Points = append(s.Points, SeriesPoint{
				Year:  r.Year,
				Value: r.YieldAnomalyPct,
				At:    Point{X: x.Map(float64(r.Year)), Y: yLeft.Map(r.YieldAnomalyPct)},
				Tooltip: &Tooltip{
					Title: fmt.Sprintf("%s %d", crop, r.Year),
					Lines: []string{"Anomalie rendement: " + signed(r.YieldAnomalyPct, 1) + "%"},
				},
			})
		}
		scene.Series = append(scene.Series, s)
		scene.Legend = append(scene.Legend, LegendItem{Label: string(crop), Color: s.Color})
	}

	source := ClimateSource(records, variable.Field())
	scene.ClimateSource = source
	scene.Inconsistent = climateInconsistent(records, variable.Field())
	climate := Series{
		Name:  climateSeriesName(variable),
		Axis:  AxisRight,
		Color: ColorClimateSeries,
		Width: 2,
		Dash:  []float64{6, 3},
	}
	for _, r := range byYear(stats.FilterCrop(records, source)) {
		v, ok := r.Value(variable.Field())
		if !ok {
			continue
		}
		climate.Points = append(climate.Points, SeriesPoint{
			Year:  r.Year,
			Value: v,
			At:    Point{X: x.Map(float64(r.Year)), Y: yRight.Map(v)},
		})
	}
	scene.Series = append(scene.Series, climate)
	scene.Legend = append(scene.Legend, LegendItem{Label: climate.Name, Color: climate.Color, Dash: climate.Dash})
	return scene
}

// ClimateSource picks the crop whose rows carry the climate series: wheat
// when it has a value for f, otherwise the lexicographically first crop that
// does. With no value at all it falls back to wheat, then the first crop.
func ClimateSource(records []domain.YieldRecord, f domain.Field) domain.Crop {
	var first, firstWithValue domain.Crop
	wheat, wheatHasValue := false, false
	for i, r := range records {
		_, ok := r.Value(f)
		if r.Crop == domain.CropWheat {
			wheat = true
			wheatHasValue = wheatHasValue || ok
		}
		if i == 0 || r.Crop < first {
			first = r.Crop
		}
		if ok && (firstWithValue == "" || r.Crop < firstWithValue) {
			firstWithValue = r.Crop
		}
	}
	switch {
	case wheatHasValue:
		return domain.CropWheat
	case firstWithValue != "":
		return firstWithValue
	case wheat:
		return domain.CropWheat
	}
	return first
}

func climateSeriesName(v domain.ClimateVariable) string {
	if v == domain.VariablePrecipitation {
		return "Précipitations"
	}
	return "Température"
}

func byYear(rows []domain.YieldRecord) []domain.YieldRecord {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return rows
}

// climateInconsistent reports whether two crops of the same year carry
// different values of the climate field.
func climateInconsistent(records []domain.YieldRecord, f domain.Field) bool {
	seen := make(map[int]float64)
	for _, r := range records {
		v, ok := r.Value(f)
		if !ok {
			continue
		}
		if prev, ok := seen[r.Year]; ok && math.Abs(prev-v) > 1e-9 {
			return true
		}
		seen[r.Year] = v
	}
	return false
}
