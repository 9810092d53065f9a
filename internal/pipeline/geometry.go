package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

// nameProperty is the feature property holding the region name.
const nameProperty = "nom"

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Properties map[string]any  `json:"properties"`
	Geometry   json.RawMessage `json:"geometry"`
}

// ParseGeometries decodes a GeoJSON feature collection of region boundaries.
// Every feature needs a string "nom" property and a Polygon or MultiPolygon
// geometry.
func ParseGeometries(data []byte) ([]domain.RegionGeometry, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: expected a FeatureCollection, got %q", ErrMalformed, fc.Type)
	}

	out := make([]domain.RegionGeometry, 0, len(fc.Features))
	for i, f := range fc.Features {
		name, _ := f.Properties[nameProperty].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("feature %d: %w: missing %q property", i, ErrMalformed, nameProperty)
		}
		g, err := geojson.Decode(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w: %v", i, name, ErrMalformed, err)
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("feature %d (%s): %w: geometry is %T, not a polygon", i, name, ErrMalformed, g)
		}
		out = append(out, domain.RegionGeometry{Name: name, Boundary: poly})
	}
	return out, nil
}
