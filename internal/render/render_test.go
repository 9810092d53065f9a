package render

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

func square(lon0, lat0, lon1, lat1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: lon0, Y: lat0}, {X: lon1, Y: lat0}, {X: lon1, Y: lat1}, {X: lon0, Y: lat1}, {X: lon0, Y: lat0},
	}}
}

func yield(region string, crop domain.Crop, year int, temp, anomaly float64) domain.YieldRecord {
	return domain.YieldRecord{Region: region, Year: year, Crop: crop, TempAnomalyC: temp, YieldAnomalyPct: anomaly, YieldQuintalsPerHa: 70}
}

// testStore has two adjacent regions: Bretagne with data, Corse without.
func testStore() *domain.RecordStore {
	return domain.NewRecordStore(
		[]domain.ClimateTrendRecord{
			{Region: "Bretagne", TotalWarming: 1.2, AnnualTempTrend: 0.05},
			{Region: "Occitanie", TotalWarming: 2.4, AnnualTempTrend: 0.1},
		},
		[]domain.YieldRecord{
			yield("Bretagne", domain.CropWheat, 2010, 0.5, -2.0),
			yield("Bretagne", domain.CropWheat, 2011, -0.3, 1.0),
			yield("Bretagne", domain.CropCorn, 2010, 0.5, -5.0),
			yield("Bretagne", domain.CropCorn, 2011, -0.3, 4.0),
			yield("Bretagne", domain.CropCorn, 2012, 0.9, -7.0),
		},
		[]domain.RegionGeometry{
			{Name: "Bretagne", Boundary: square(1, 46, 2, 47)},
			{Name: "Corse", Boundary: square(2, 46, 3, 47)},
		},
	)
}

func TestSequentialScale(t *testing.T) {
	s := NewWarmingScale([]float64{1.2, -3.0, 2.4})
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t, "#ffffcc", Hex(s.Color(0)))
	assert.Equal(t, "#800026", Hex(s.Color(3.0)))
	assert.Equal(t, "#800026", Hex(s.Color(10)), "clamped above")
	assert.Equal(t, "#ffffcc", Hex(s.Color(-1)), "clamped below")
	assert.Equal(t, s.Color(1.7), s.Color(1.7))
	assert.Equal(t, "#fd8d3c", Hex(s.Color(1.5)), "midpoint is the middle stop")

	flat := NewWarmingScale([]float64{0, 0})
	assert.Equal(t, "#ffffcc", Hex(flat.Color(0)))
	assert.Equal(t, "#ffffcc", Hex(flat.Color(5)))
}

func TestLinearScale(t *testing.T) {
	s := NewLinearScale(0.13, 0.97, 0, 100).Nice(10)
	assert.InDelta(t, 0.1, s.D0, 1e-12)
	assert.InDelta(t, 1.0, s.D1, 1e-12)
	assert.Equal(t, 50.0, NewLinearScale(0, 10, 0, 100).Map(5))
	assert.Equal(t, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}, NewLinearScale(0, 1, 0, 1).Ticks(5))
	assert.Equal(t, 50.0, NewLinearScale(3, 3, 0, 100).Map(3), "degenerate domain maps to midpoint")

	p := NewLinearScale(2015, 2015, 0, 10).Padded(1)
	assert.Equal(t, 2014.0, p.D0)
	assert.Equal(t, 2016.0, p.D1)
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "+1.20", signed(1.2, 2))
	assert.Equal(t, "0.00", signed(0, 2))
	assert.Equal(t, "0.00", signed(0.001, 2))
	assert.Equal(t, "-0.500", signed(-0.5, 3))
}

func TestProjection(t *testing.T) {
	p, err := NewProjection(MapWidth, MapHeight)
	require.NoError(t, err)

	x, y, err := p.Point(2.5, 46.5)
	require.NoError(t, err)
	assert.InDelta(t, 400, x, 1e-6)
	assert.InDelta(t, 350, y, 1e-6)

	x, _, err = p.Point(3.5, 46.5)
	require.NoError(t, err)
	assert.InDelta(t, 400+mapScale*math.Pi/180, x, 1e-6)

	_, y, err = p.Point(2.5, 47.5)
	require.NoError(t, err)
	assert.Less(t, y, 350.0, "north is up")
}

func TestChoropleth_Render(t *testing.T) {
	store := testStore()
	sel := domain.NewSelection()
	c := NewChoropleth(store, sel, NewOverlays())

	scene, err := c.Render()
	require.NoError(t, err)
	require.Len(t, scene.Regions, 2)

	bzh, corse := scene.Regions[0], scene.Regions[1]
	assert.True(t, bzh.HasData)
	assert.Equal(t, c.Scale().Color(1.2), bzh.Fill)
	assert.Equal(t, "+1.20°C", bzh.ValueLabel)
	assert.Equal(t, regionOpacity, bzh.Opacity)
	assert.NotEmpty(t, bzh.Path)

	assert.False(t, corse.HasData)
	assert.Equal(t, ColorNoData, corse.Fill)
	assert.Nil(t, corse.Tooltip)
	assert.Empty(t, corse.ValueLabel)

	assert.Equal(t, "Réchauffement 2010-2019", scene.Legend.Title)
	assert.Equal(t, "0°C", scene.Legend.MinLabel)
	assert.Equal(t, "+2.4°C", scene.Legend.MaxLabel)
	assert.Equal(t, "#800026", Hex(scene.Legend.To))
}

func TestChoropleth_Deterministic(t *testing.T) {
	store := testStore()
	a, err := NewChoropleth(store, domain.NewSelection(), NewOverlays()).Render()
	require.NoError(t, err)
	b, err := NewChoropleth(store, domain.NewSelection(), NewOverlays()).Render()
	require.NoError(t, err)
	assert.Equal(t, a.Regions, b.Regions)
}

func TestChoropleth_ClickNoDataRegion(t *testing.T) {
	sel := domain.NewSelection()
	c := NewChoropleth(testStore(), sel, NewOverlays())

	assert.True(t, c.Click("Corse"))
	region, ok := sel.Region()
	require.True(t, ok)
	assert.Equal(t, "Corse", region)

	scene, err := c.Render()
	require.NoError(t, err)
	corse := scene.Regions[1]
	assert.True(t, corse.Selected)
	assert.Equal(t, ColorSelectedEdge, corse.Stroke)
	assert.Equal(t, selectedStrokeWidth, corse.StrokeWidth)
	assert.Equal(t, 1.0, corse.Opacity)

	assert.False(t, c.Click("Atlantide"))
	region, _ = sel.Region()
	assert.Equal(t, "Corse", region, "unknown names leave the selection alone")
}

func TestChoropleth_ClickAt(t *testing.T) {
	store := testStore()
	sel := domain.NewSelection()
	c := NewChoropleth(store, sel, NewOverlays())

	p, err := NewProjection(MapWidth, MapHeight)
	require.NoError(t, err)
	x, y, err := p.Point(1.5, 46.5)
	require.NoError(t, err)

	name, ok, err := c.ClickAt(x, y)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bretagne", name)
	assert.True(t, sel.IsSelected("Bretagne"))

	x, y, err = p.Point(2.7, 46.2)
	require.NoError(t, err)
	name, ok, err = c.ClickAt(x, y)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Corse", name)

	_, ok, err = c.ClickAt(5, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, sel.IsSelected("Corse"))
}

func TestChoropleth_Hover(t *testing.T) {
	c := NewChoropleth(testStore(), domain.NewSelection(), NewOverlays())

	h, ok := c.Hover("Bretagne")
	require.True(t, ok)
	assert.Equal(t, 1.0, h.Opacity)
	require.NotNil(t, h.Tooltip)
	assert.Equal(t, "Bretagne", h.Tooltip.Title)
	assert.Equal(t, []string{"Réchauffement: +1.20°C", "Tendance: +0.050°C/an"}, h.Tooltip.Lines)

	h, ok = c.Hover("Corse")
	require.True(t, ok)
	assert.Nil(t, h.Tooltip, "emphasis only")

	_, ok = c.Hover("Atlantide")
	assert.False(t, ok)
}

func TestTimeline(t *testing.T) {
	store := testStore()
	sel := domain.NewSelection()
	tl := NewTimeline(store, sel, NewOverlays())

	assert.Nil(t, tl.Render(domain.VariableTemperature), "nothing selected")

	sel.Select("Bretagne")
	scene := tl.Render(domain.VariableTemperature)
	require.NotNil(t, scene)
	assert.False(t, scene.NoData)
	require.Len(t, scene.Series, 3)
	assert.Equal(t, domain.CropWheat, scene.Series[0].Crop)
	assert.Equal(t, domain.CropCorn, scene.Series[1].Crop)

	climate := scene.Series[2]
	assert.Equal(t, AxisRight, climate.Axis)
	assert.Equal(t, "Température", climate.Name)
	assert.Equal(t, domain.CropWheat, scene.ClimateSource)
	require.Len(t, climate.Points, 2)
	assert.Equal(t, 2010, climate.Points[0].Year)
	assert.False(t, scene.Inconsistent)

	assert.Equal(t, 2010.0, scene.XAxis.Scale.D0)
	assert.Equal(t, 2012.0, scene.XAxis.Scale.D1)
	assert.Len(t, scene.XAxis.Ticks, 3)
	assert.Len(t, scene.Legend, 3)
}

func TestBuildTimeline_EdgeCases(t *testing.T) {
	t.Run("no records", func(t *testing.T) {
		scene := BuildTimeline("Corse", nil, domain.VariableTemperature)
		assert.True(t, scene.NoData)
		assert.Equal(t, NoDataMessage, scene.Message)
	})

	t.Run("single year is padded", func(t *testing.T) {
		scene := BuildTimeline("A", []domain.YieldRecord{yield("A", domain.CropWheat, 2015, 0.2, 1)}, domain.VariableTemperature)
		assert.Equal(t, 2014.0, scene.XAxis.Scale.D0)
		assert.Equal(t, 2016.0, scene.XAxis.Scale.D1)
		for _, p := range scene.Series[0].Points {
			assert.False(t, math.IsNaN(p.At.X))
		}
	})

	t.Run("climate source without wheat", func(t *testing.T) {
		records := []domain.YieldRecord{
			yield("A", domain.CropSunflower, 2010, 0.2, 1),
			yield("A", domain.CropCorn, 2010, 0.2, 1),
		}
		assert.Equal(t, domain.CropCorn, ClimateSource(records, domain.FieldTempAnomaly))
	})

	t.Run("climate source skips crops without values", func(t *testing.T) {
		withPrecip := func(r domain.YieldRecord, p float64) domain.YieldRecord {
			r.PrecipAnomalyPct = &p
			return r
		}
		records := []domain.YieldRecord{
			yield("A", domain.CropWheat, 2010, 0.2, 1),
			yield("A", domain.CropWheat, 2011, 0.4, -1),
			withPrecip(yield("A", domain.CropCorn, 2010, 0.2, 2), 5),
			withPrecip(yield("A", domain.CropCorn, 2011, 0.4, -2), -3),
		}
		assert.Equal(t, domain.CropCorn, ClimateSource(records, domain.FieldPrecipAnomaly))
		assert.Equal(t, domain.CropWheat, ClimateSource(records, domain.FieldTempAnomaly))

		scene := BuildTimeline("A", records, domain.VariablePrecipitation)
		assert.Equal(t, domain.CropCorn, scene.ClimateSource)
		climate := scene.Series[len(scene.Series)-1]
		require.Equal(t, AxisRight, climate.Axis)
		require.Len(t, climate.Points, 2)
		assert.InDelta(t, 5.0, climate.Points[0].Value, 1e-12)
		assert.InDelta(t, -3.0, climate.Points[1].Value, 1e-12)
	})

	t.Run("inconsistent climate across crops", func(t *testing.T) {
		records := []domain.YieldRecord{
			yield("A", domain.CropWheat, 2010, 0.2, 1),
			yield("A", domain.CropCorn, 2010, 0.4, 1),
		}
		assert.True(t, BuildTimeline("A", records, domain.VariableTemperature).Inconsistent)
	})

	t.Run("missing precipitation skipped", func(t *testing.T) {
		p := 12.0
		a := yield("A", domain.CropWheat, 2010, 0.2, 1)
		a.PrecipAnomalyPct = &p
		b := yield("A", domain.CropWheat, 2011, 0.3, 2)
		scene := BuildTimeline("A", []domain.YieldRecord{a, b}, domain.VariablePrecipitation)
		climate := scene.Series[len(scene.Series)-1]
		require.Len(t, climate.Points, 1)
		assert.Equal(t, 12.0, climate.Points[0].Value)
		assert.Equal(t, "Précipitations", climate.Name)
		assert.Equal(t, "Anomalie précipitations (%)", scene.RightAxis.Label)
	})
}

func TestScatter_CropFilter(t *testing.T) {
	records := testStore().YieldsForRegion("Bretagne")

	all := BuildScatter("Bretagne", records, AllCrops)
	assert.Equal(t, "Bretagne - Impact de la température sur les rendements", all.Title)
	assert.Len(t, all.Points, 5)
	require.Len(t, all.Legend, 2)
	assert.Equal(t, "Blé", all.Legend[0].Label)
	assert.Equal(t, []string{"Corrélation: -1.000", "R² = 1.000", "n = 2 points"}, all.Legend[0].Lines)
	assert.Len(t, all.References, 2)
	assert.Equal(t, []CropFilter{AllCrops, "Blé", "Maïs"}, all.Options)

	corn := BuildScatter("Bretagne", records, ParseCropFilter("Corn"))
	assert.Equal(t, CropFilter(domain.CropCorn), corn.Filter)
	require.Len(t, corn.Points, 3)
	for _, p := range corn.Points {
		assert.Equal(t, domain.CropCorn, p.Crop)
		assert.Equal(t, CropColor(domain.CropCorn), p.Color)
	}
	require.Len(t, corn.Legend, 1)
	assert.Equal(t, "Maïs", corn.Legend[0].Label)
	assert.Equal(t, "n = 3 points", corn.Legend[0].Lines[2])
	assert.Equal(t, all.Options, corn.Options, "options come from the full subset")

	absent := BuildScatter("Bretagne", records, ParseCropFilter("Sunflower"))
	assert.Equal(t, AllCrops, absent.Filter)
	assert.Len(t, absent.Points, 5)
}

func TestScatter_SingleRecordCropHasNoLine(t *testing.T) {
	records := []domain.YieldRecord{
		yield("A", domain.CropWheat, 2010, 0.1, 1),
		yield("A", domain.CropCorn, 2010, 0.1, 1),
		yield("A", domain.CropCorn, 2011, 0.6, -3),
	}
	scene := BuildScatter("A", records, AllCrops)
	require.Len(t, scene.Regressions, 1)
	assert.Equal(t, domain.CropCorn, scene.Regressions[0].Crop)
	assert.Len(t, scene.Points, 3)
}

func TestScatter_FlatTemperatureKeepsLegend(t *testing.T) {
	records := []domain.YieldRecord{
		yield("A", domain.CropWheat, 2010, 0.4, 1),
		yield("A", domain.CropWheat, 2011, 0.4, -3),
		yield("A", domain.CropCorn, 2010, 0.1, 1),
		yield("A", domain.CropCorn, 2011, 0.6, -3),
	}
	scene := BuildScatter("A", records, AllCrops)
	require.Len(t, scene.Regressions, 1)
	assert.Equal(t, domain.CropCorn, scene.Regressions[0].Crop)

	require.Len(t, scene.Legend, 2)
	assert.Equal(t, "Blé", scene.Legend[0].Label)
	assert.Equal(t, []string{"r indéfini", "n = 2 points"}, scene.Legend[0].Lines)
	assert.Empty(t, scene.Legend[0].Dash)
	assert.Equal(t, "Maïs", scene.Legend[1].Label)
	assert.Equal(t, "n = 2 points", scene.Legend[1].Lines[2])
}

func TestScatter_PointTooltip(t *testing.T) {
	a := yield("A", domain.CropWheat, 2010, 0.25, 3.5)
	a.YieldQuintalsPerHa = 72.4
	p := -4.3
	a.PrecipAnomalyPct = &p
	b := yield("A", domain.CropWheat, 2011, -0.5, -1)

	scene := BuildScatter("A", []domain.YieldRecord{a, b}, AllCrops)
	require.Len(t, scene.Points, 2)
	require.NotNil(t, scene.Points[0].Tooltip)
	assert.Equal(t, "Blé", scene.Points[0].Tooltip.Title)
	assert.Equal(t, []string{
		"Année: 2010",
		"Anomalie temp: +0.25°C",
		"Anomalie rendement: +3.5%",
		"Anomalie précip: -4.3%",
		"Rendement: 72.4 q/ha",
	}, scene.Points[0].Tooltip.Lines)
	assert.Contains(t, scene.Points[1].Tooltip.Lines, "Anomalie précip: 0.0%", "missing precipitation shows as zero")
}

func TestParseCropFilter(t *testing.T) {
	assert.Equal(t, AllCrops, ParseCropFilter(""))
	assert.Equal(t, AllCrops, ParseCropFilter("all"))
	assert.Equal(t, AllCrops, ParseCropFilter("Toutes"))
	assert.Equal(t, CropFilter(domain.CropWheat), ParseCropFilter("wheat"))
	assert.Equal(t, "Toutes les cultures", AllCrops.Label())
}

func TestOverlays_DoNotAccumulate(t *testing.T) {
	store := testStore()
	sel := domain.NewSelection()
	ov := NewOverlays()
	c := NewChoropleth(store, sel, ov)
	tl := NewTimeline(store, sel, ov)
	sc := NewScatter(store, sel, ov)

	for i := 0; i < 5; i++ {
		_, err := c.Render()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ov.Active())

	sel.Select("Bretagne")
	for i := 0; i < 5; i++ {
		_, err := c.Render()
		require.NoError(t, err)
		require.NotNil(t, tl.Render(domain.VariableTemperature))
		require.NotNil(t, sc.Render(AllCrops))
		assert.Equal(t, 3, ov.Active())
	}

	sel.Clear()
	assert.Equal(t, 1, ov.Active(), "detail overlays released on unmount")

	sel.Select("Corse")
	assert.True(t, tl.Render(domain.VariableTemperature).NoData)
	assert.True(t, sc.Render(AllCrops).NoData)
	assert.Equal(t, 1, ov.Active())
}

func TestOverlayHandle_ReleaseSuperseded(t *testing.T) {
	ov := NewOverlays()
	first := ov.Acquire(OwnerMap)
	second := ov.Acquire(OwnerMap)
	assert.NotEqual(t, first.ID, second.ID)

	first.Release()
	assert.Equal(t, 1, ov.Active(), "a superseded handle leaves the new overlay live")

	second.Release()
	second.Release()
	assert.Zero(t, ov.Active())
}
