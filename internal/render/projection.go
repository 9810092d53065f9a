package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Map canvas and projection parameters.
const (
	MapWidth  = 800.0
	MapHeight = 700.0

	centerLon  = 2.5
	centerLat  = 46.5
	mapScale   = 2500.0 // pixels per radian
	sphereRad  = 6378137.0
	lonLatProj = "+proj=longlat +a=6378137 +b=6378137 +no_defs"
	webMapProj = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
)

// Projection is a spherical Mercator projection scaled and translated onto
// the map canvas, with France centered.
type Projection struct {
	toMerc proj.Transformer
	cx, cy float64 // center in mercator meters
	tx, ty float64
	scale  float64
}

// NewProjection builds the projection for a width x height canvas.
func NewProjection(width, height float64) (*Projection, error) {
	src, err := proj.Parse(lonLatProj)
	if err != nil {
		return nil, fmt.Errorf("parse source projection: %w", err)
	}
	dst, err := proj.Parse(webMapProj)
	if err != nil {
		return nil, fmt.Errorf("parse web mercator: %w", err)
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, fmt.Errorf("build transform: %w", err)
	}
	cx, cy, err := t(centerLon, centerLat)
	if err != nil {
		return nil, fmt.Errorf("project center: %w", err)
	}
	return &Projection{toMerc: t, cx: cx, cy: cy, tx: width / 2, ty: height / 2, scale: mapScale}, nil
}

// Point projects a longitude/latitude pair to canvas pixels.
func (p *Projection) Point(lon, lat float64) (x, y float64, err error) {
	mx, my, err := p.toMerc(lon, lat)
	if err != nil {
		return 0, 0, err
	}
	return p.tx + p.scale*(mx-p.cx)/sphereRad, p.ty - p.scale*(my-p.cy)/sphereRad, nil
}

// Transformer adapts Point to the geom transform signature.
func (p *Projection) Transformer() proj.Transformer {
	return p.Point
}

// Polygonal projects a boundary to canvas coordinates.
func (p *Projection) Polygonal(g geom.Polygonal) (geom.Polygonal, error) {
	gg, err := g.Transform(p.Transformer())
	if err != nil {
		return nil, err
	}
	poly, ok := gg.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("projected boundary is %T, not polygonal", gg)
	}
	return poly, nil
}

// PathData renders projected rings as SVG path data, one closed subpath per
// ring.
func PathData(g geom.Polygonal) string {
	var b strings.Builder
	for _, poly := range g.Polygons() {
		for _, ring := range poly {
			for i, pt := range ring {
				if i == 0 {
					b.WriteByte('M')
				} else {
					b.WriteByte('L')
				}
				b.WriteString(coord(pt.X))
				b.WriteByte(',')
				b.WriteString(coord(pt.Y))
			}
			if len(ring) > 0 {
				b.WriteByte('Z')
			}
		}
	}
	return b.String()
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
