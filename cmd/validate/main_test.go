package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agro-climate-viz/internal/pipeline"
)

type memSource map[string]string

func (m memSource) Location(name string) string { return "mem://" + name }

func (m memSource) Read(_ context.Context, name string) ([]byte, error) {
	s, ok := m[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(s), nil
}

var testFiles = pipeline.Files{Yields: "y.csv", Trends: "t.csv", Geometry: "g.geojson"}

const geometryJSON = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"nom":"Bretagne"},"geometry":{"type":"Polygon","coordinates":[[[-4.5,47.5],[-1.5,47.5],[-1.5,48.8],[-4.5,48.8],[-4.5,47.5]]]}},
 {"type":"Feature","properties":{"nom":"Corse"},"geometry":{"type":"Polygon","coordinates":[[[8.5,41.4],[9.6,41.4],[9.6,43.0],[8.5,43.0],[8.5,41.4]]]}}
]}`

const trendsCSV = "Région,Réchauffement_total_période,Tendance_temp_par_an\n" +
	"Bretagne,0.9,0.1\n" +
	"Guadeloupe,0.6,0.067\n"

// Wheat mean is 70, corn mean is 100.
const consistentYields = "Région,Année,Culture,Rendement_qha,Anomalie_temp_C,Anomalie_rendement_pct,Anomalie_precip_pct\n" +
	"Bretagne,2010,Blé,77,-0.5,10,4\n" +
	"Bretagne,2011,Blé,63,0.5,-10,-4\n" +
	"Bretagne,2010,Maïs,95,-0.5,-5,4\n" +
	"Bretagne,2011,Maïs,105,0.5,5,-4\n"

func runWith(t *testing.T, yields string) (int, string) {
	t.Helper()
	src := memSource{testFiles.Yields: yields, testFiles.Trends: trendsCSV, testFiles.Geometry: geometryJSON}
	var out bytes.Buffer
	code := run(context.Background(), &out, src, testFiles, 0.5)
	return code, out.String()
}

func TestRun_Consistent(t *testing.T) {
	code, out := runWith(t, consistentYields)
	assert.Equal(t, 0, code, out)
	assert.Contains(t, out, "All validations passed.")
	assert.Contains(t, out, "Records: 4 yield rows, 2 trend rows, 2 geometry features")
	assert.Contains(t, out, "warning: Corse: on the map without trend or yield rows")
	assert.Contains(t, out, "warning: Guadeloupe: trend row but no geometry")
}

func TestRun_ClimateMismatch(t *testing.T) {
	yields := consistentYields[:len(consistentYields)-len("Bretagne,2011,Maïs,105,0.5,5,-4\n")] +
		"Bretagne,2011,Maïs,105,0.9,5,-4\n"
	code, out := runWith(t, yields)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Bretagne 2011: temperature anomaly 0.50 for Blé but 0.90 for Maïs")
}

func TestRun_AnomalyMismatch(t *testing.T) {
	yields := consistentYields[:len(consistentYields)-len("Bretagne,2011,Maïs,105,0.5,5,-4\n")] +
		"Bretagne,2011,Maïs,105,0.5,8,-4\n"
	code, out := runWith(t, yields)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Bretagne 2011 Maïs: yield anomaly 8.0%, expected 5.0%")
}

func TestRun_DuplicateRow(t *testing.T) {
	code, out := runWith(t, consistentYields+"Bretagne,2010,Blé,77,-0.5,10,4\n")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Bretagne 2010 Blé: duplicate row")
}

func TestRun_OrphanYields(t *testing.T) {
	code, out := runWith(t, consistentYields+"Atlantide,2010,Blé,50,0.1,0,\n")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "Atlantide: 1 yield rows but no geometry")
}

func TestRun_ParseFailureStopsEarly(t *testing.T) {
	code, out := runWith(t, "Région,Année\nBretagne,2010\n")
	require.Equal(t, 1, code)
	assert.Contains(t, out, "Phase 1: Parse")
	assert.NotContains(t, out, "Phase 2")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	code := run(context.Background(), &out, memSource{}, testFiles, 0.5)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "read mem://y.csv")
}
