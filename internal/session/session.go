// Package session holds the interaction state of one browser: the selected
// region, the scatter crop filter, the timeline climate variable and the
// tooltip overlays of the mounted charts.
//
// Every event runs under the session mutex, so a click, a filter change and
// the render that follows are applied one at a time and in arrival order.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/observability"
	"github.com/couchcryptid/agro-climate-viz/internal/render"
	"github.com/couchcryptid/agro-climate-viz/internal/stats"
)

// Frame is everything drawn for one page view.
type Frame struct {
	Map      *render.MapScene
	Timeline *render.TimelineScene // nil when nothing is selected
	Scatter  *render.ScatterScene  // nil when nothing is selected
	Summary  *stats.RegionSummary  // nil when nothing is selected

	Selected string
	NoData   bool
	Message  string
	Filter   render.CropFilter
	Variable domain.ClimateVariable
	Overlays int
}

// Session is the interaction state of one user.
type Session struct {
	ID string

	mu         sync.Mutex
	records    *domain.RecordStore
	selection  *domain.Selection
	overlays   *render.Overlays
	choropleth *render.Choropleth
	timeline   *render.Timeline
	scatter    *render.Scatter
	filter     render.CropFilter
	variable   domain.ClimateVariable

	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a session over the loaded records with nothing selected.
func New(id string, records *domain.RecordStore, logger *slog.Logger, metrics *observability.Metrics) *Session {
	sel := domain.NewSelection()
	ov := render.NewOverlays()
	s := &Session{
		ID:         id,
		records:    records,
		selection:  sel,
		overlays:   ov,
		choropleth: render.NewChoropleth(records, sel, ov),
		timeline:   render.NewTimeline(records, sel, ov),
		scatter:    render.NewScatter(records, sel, ov),
		filter:     render.AllCrops,
		variable:   domain.VariableTemperature,
		logger:     logger.With("session", id),
		metrics:    metrics,
	}
	sel.Subscribe(s.onSelect)
	return s
}

func (s *Session) onSelect(region string) {
	if region == "" {
		s.logger.Debug("selection cleared")
		return
	}
	s.metrics.Selections.Inc()
	s.logger.Debug("region selected", "region", region, "yield_rows", len(s.records.YieldsForRegion(region)))
}

// Click selects a region by name. It reports false for names not on the map.
func (s *Session) Click(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choropleth.Click(name)
}

// ClickAt selects the region under a map canvas point.
func (s *Session) ClickAt(x, y float64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choropleth.ClickAt(x, y)
}

// Clear is the explicit "clear selection" action.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Clear()
}

// SetCropFilter changes the scatter plot filter.
func (s *Session) SetCropFilter(f render.CropFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f == "" {
		f = render.AllCrops
	}
	s.filter = f
}

// SetClimateVariable changes the timeline's right-axis series.
func (s *Session) SetClimateVariable(v domain.ClimateVariable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == "" {
		v = domain.VariableTemperature
	}
	s.variable = v
}

// Hover returns the map emphasis for a region.
func (s *Session) Hover(name string) (render.Hover, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.choropleth.Hover(name)
}

// Selected returns the selected region.
func (s *Session) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.Region()
}

// Render rebuilds every mounted chart from the current state.
func (s *Session) Render() (*Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &Frame{Filter: s.filter, Variable: s.variable}

	var err error
	s.timed(render.OwnerMap, func() {
		f.Map, err = s.choropleth.Render()
	})
	if err != nil {
		return nil, err
	}

	region, ok := s.selection.Region()
	if !ok {
		f.Overlays = s.overlays.Active()
		return f, nil
	}
	f.Selected = region

	s.timed(render.OwnerTimeline, func() {
		f.Timeline = s.timeline.Render(s.variable)
	})
	s.timed(render.OwnerScatter, func() {
		f.Scatter = s.scatter.Render(s.filter)
	})
	if f.Timeline.Inconsistent {
		s.logger.Warn("climate anomalies differ across crops",
			"region", region, "source_crop", f.Timeline.ClimateSource)
	}

	rows := s.records.YieldsForRegion(region)
	if len(rows) == 0 {
		f.NoData = true
		f.Message = render.NoDataMessage
	} else {
		sum := stats.Summarize(region, rows)
		f.Summary = &sum
	}
	f.Filter = f.Scatter.Filter
	f.Overlays = s.overlays.Active()
	return f, nil
}

func (s *Session) timed(renderer string, fn func()) {
	start := time.Now()
	fn()
	s.metrics.Renders.WithLabelValues(renderer).Inc()
	s.metrics.RenderDuration.WithLabelValues(renderer).Observe(time.Since(start).Seconds())
}
