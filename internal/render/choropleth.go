package render

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

// Region stroke and opacity states.
const (
	selectedStrokeWidth = 3.0
	regionStrokeWidth   = 1.5
	regionOpacity       = 0.85
	hoverOpacity        = 1.0
	valueLabelOffset    = 18.0
)

// RegionShape is one drawn region of the map.
type RegionShape struct {
	Name        string
	Path        string
	Fill        drawing.Color
	Stroke      drawing.Color
	StrokeWidth float64
	Opacity     float64
	Selected    bool
	HasData     bool
	Warming     float64
	Trend       float64
	Centroid    Point
	ValueLabel  string
	Tooltip     *Tooltip // nil for regions without trend data
}

// MapScene is the full choropleth.
type MapScene struct {
	Width, Height float64
	Background    drawing.Color
	Regions       []RegionShape
	Legend        GradientLegend
	Selected      string
	OverlayID     string

	hits *HitIndex
}

// RegionAt resolves a canvas point to the region drawn under it.
func (s *MapScene) RegionAt(x, y float64) (string, bool) {
	if s == nil || s.hits == nil {
		return "", false
	}
	return s.hits.RegionAt(x, y)
}

// Hover is the emphasis state of a hovered region.
type Hover struct {
	Region  string
	Opacity float64
	Tooltip *Tooltip // nil: emphasis only
}

// Choropleth draws every region colored by total warming.
type Choropleth struct {
	store     *domain.RecordStore
	selection *domain.Selection
	overlays  *Overlays
	scale     SequentialScale
	last      *MapScene
}

// NewChoropleth creates a map renderer. The color scale is fixed by the trend
// dataset at construction.
func NewChoropleth(store *domain.RecordStore, selection *domain.Selection, overlays *Overlays) *Choropleth {
	trends := store.Trends()
	warming := make([]float64, len(trends))
	for i, t := range trends {
		warming[i] = t.TotalWarming
	}
	return &Choropleth{
		store:     store,
		selection: selection,
		overlays:  overlays,
		scale:     NewWarmingScale(warming),
	}
}

// Scale returns the map's color scale.
func (c *Choropleth) Scale() SequentialScale { return c.scale }

// Render builds the map scene from the store and the current selection.
func (c *Choropleth) Render() (*MapScene, error) {
	proj, err := NewProjection(MapWidth, MapHeight)
	if err != nil {
		return nil, err
	}
	selected, _ := c.selection.Region()

	scene := &MapScene{
		Width:      MapWidth,
		Height:     MapHeight,
		Background: ColorBackground,
		Selected:   selected,
		Legend: GradientLegend{
			Title:    fmt.Sprintf("Réchauffement %d-%d", domain.FirstYear, domain.LastYear),
			X:        30,
			Y:        MapHeight - 60,
			Width:    200,
			Height:   15,
			From:     c.scale.Color(0),
			To:       c.scale.Color(c.scale.Max),
			MinLabel: "0°C",
			MaxLabel: fmt.Sprintf("+%.1f°C", c.scale.Max),
		},
		hits: newHitIndex(),
	}

	for _, g := range c.store.Geometries() {
		projected, err := proj.Polygonal(g.Boundary)
		if err != nil {
			return nil, fmt.Errorf("project region %q: %w", g.Name, err)
		}
		shape := c.shape(g.Name, projected)
		scene.Regions = append(scene.Regions, shape)
		scene.hits.add(g.Name, projected)
	}

	scene.OverlayID = c.overlays.Acquire(OwnerMap).ID
	c.last = scene
	return scene, nil
}

func (c *Choropleth) shape(name string, projected geom.Polygonal) RegionShape {
	centroid := projected.Centroid()
	s := RegionShape{
		Name:        name,
		Path:        PathData(projected),
		Fill:        ColorNoData,
		Stroke:      ColorRegionEdge,
		StrokeWidth: regionStrokeWidth,
		Opacity:     regionOpacity,
		Centroid:    Point{X: centroid.X, Y: centroid.Y},
	}
	if c.selection.IsSelected(name) {
		s.Selected = true
		s.Stroke = ColorSelectedEdge
		s.StrokeWidth = selectedStrokeWidth
		s.Opacity = hoverOpacity
	}
	if t, ok := c.store.Trend(name); ok {
		s.HasData = true
		s.Warming = t.TotalWarming
		s.Trend = t.AnnualTempTrend
		s.Fill = c.scale.Color(t.TotalWarming)
		s.ValueLabel = signed(t.TotalWarming, 2) + "°C"
		s.Tooltip = c.tooltip(t)
	}
	return s
}

func (c *Choropleth) tooltip(t domain.ClimateTrendRecord) *Tooltip {
	return &Tooltip{
		Title: t.Region,
		Lines: []string{
			"Réchauffement: " + signed(t.TotalWarming, 2) + "°C",
			"Tendance: " + signed(t.AnnualTempTrend, 3) + "°C/an",
		},
	}
}

// ValueLabelPos is where a region's warming value is drawn.
func (s RegionShape) ValueLabelPos() Point {
	return Point{X: s.Centroid.X, Y: s.Centroid.Y + valueLabelOffset}
}

// Click selects a region by name. Names without geometry are ignored.
func (c *Choropleth) Click(name string) bool {
	if !c.store.HasGeometry(name) {
		return false
	}
	c.selection.Select(name)
	return true
}

// ClickAt selects the region under a canvas point of the last rendered scene.
func (c *Choropleth) ClickAt(x, y float64) (string, bool, error) {
	if c.last == nil {
		if _, err := c.Render(); err != nil {
			return "", false, err
		}
	}
	name, ok := c.last.RegionAt(x, y)
	if !ok {
		return "", false, nil
	}
	c.selection.Select(name)
	return name, true, nil
}

// Hover returns the emphasis of a hovered region. Regions without trend data
// get no tooltip. ok is false for unknown names.
func (c *Choropleth) Hover(name string) (Hover, bool) {
	if !c.store.HasGeometry(name) {
		return Hover{}, false
	}
	h := Hover{Region: name, Opacity: hoverOpacity}
	if t, ok := c.store.Trend(name); ok {
		h.Tooltip = c.tooltip(t)
	}
	return h, true
}

// HitIndex finds regions by canvas position.
type HitIndex struct {
	tree *rtree.Rtree
	n    int
}

type hitRegion struct {
	geom.Polygonal
	name  string
	order int
}

func newHitIndex() *HitIndex {
	return &HitIndex{tree: rtree.NewTree(25, 50)}
}

func (h *HitIndex) add(name string, poly geom.Polygonal) {
	h.tree.Insert(&hitRegion{Polygonal: poly, name: name, order: h.n})
	h.n++
}

// RegionAt returns the region containing (x, y). A point strictly inside a
// region wins over one on a shared edge; ties go to the region drawn first.
func (h *HitIndex) RegionAt(x, y float64) (string, bool) {
	pt := geom.Point{X: x, Y: y}
	var best *hitRegion
	bestInside := false
	for _, g := range h.tree.SearchIntersect(pt.Bounds()) {
		r := g.(*hitRegion)
		status := pt.Within(r.Polygonal)
		if status == geom.Outside {
			continue
		}
		inside := status == geom.Inside
		switch {
		case best == nil,
			inside && !bestInside,
			inside == bestInside && r.order < best.order:
			best, bestInside = r, inside
		}
	}
	if best == nil {
		return "", false
	}
	return best.name, true
}
