package chart_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agro-climate-viz/internal/adapter/chart"
	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/render"
)

func rows() []domain.YieldRecord {
	y := func(crop domain.Crop, year int, temp, anomaly float64) domain.YieldRecord {
		return domain.YieldRecord{Region: "Bretagne", Year: year, Crop: crop, TempAnomalyC: temp, YieldAnomalyPct: anomaly, YieldQuintalsPerHa: 75}
	}
	return []domain.YieldRecord{
		y(domain.CropWheat, 2010, -0.3, 1.0),
		y(domain.CropWheat, 2011, 0.5, -2.0),
		y(domain.CropWheat, 2012, 0.1, 0.4),
		y(domain.CropCorn, 2010, -0.3, 3.1),
		y(domain.CropCorn, 2011, 0.5, -4.2),
		y(domain.CropCorn, 2012, 0.1, -0.5),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want chart.Format
		ok   bool
	}{
		{"png", chart.PNG, true},
		{" SVG ", chart.SVG, true},
		{"jpeg", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := chart.ParseFormat(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "image/png", chart.PNG.ContentType())
	assert.Equal(t, "image/svg+xml", chart.SVG.ContentType())
}

func TestTimeline_PNG(t *testing.T) {
	scene := render.BuildTimeline("Bretagne", rows(), domain.VariableTemperature)

	var buf bytes.Buffer
	require.NoError(t, chart.Timeline(&buf, scene, chart.PNG))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(render.TimelineWidth), cfg.Width)
	assert.Equal(t, int(render.TimelineHeight), cfg.Height)
}

func TestTimeline_SVG(t *testing.T) {
	scene := render.BuildTimeline("Bretagne", rows(), domain.VariableTemperature)

	var buf bytes.Buffer
	require.NoError(t, chart.Timeline(&buf, scene, chart.SVG))
	assert.Contains(t, buf.String(), "<svg")
}

func TestScatter_PNG(t *testing.T) {
	scene := render.BuildScatter("Bretagne", rows(), render.AllCrops)
	require.Len(t, scene.Regressions, 2)

	var buf bytes.Buffer
	require.NoError(t, chart.Scatter(&buf, scene, chart.PNG))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, int(render.ScatterWidth), cfg.Width)
}

func TestExport_NoData(t *testing.T) {
	var buf bytes.Buffer

	assert.ErrorIs(t, chart.Timeline(&buf, nil, chart.PNG), chart.ErrNoData)
	assert.ErrorIs(t, chart.Scatter(&buf, nil, chart.PNG), chart.ErrNoData)

	empty := render.BuildTimeline("Corse", nil, domain.VariableTemperature)
	assert.ErrorIs(t, chart.Timeline(&buf, empty, chart.PNG), chart.ErrNoData)
	assert.ErrorIs(t, chart.Scatter(&buf, render.BuildScatter("Corse", nil, render.AllCrops), chart.SVG), chart.ErrNoData)
	assert.Zero(t, buf.Len())
}
