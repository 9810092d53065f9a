package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/observability"
	"github.com/couchcryptid/agro-climate-viz/internal/pipeline"
)

// --- mocks ---

type mapSource struct {
	files  map[string]string
	reads  atomic.Int64
	onRead func(name string)
}

func (m *mapSource) Location(name string) string { return "mem://" + name }

func (m *mapSource) Read(ctx context.Context, name string) ([]byte, error) {
	m.reads.Add(1)
	if m.onRead != nil {
		m.onRead(name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := m.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return []byte(s), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var fixtureFiles = pipeline.Files{
	Yields:   "data/data_final_avec_anomalies.csv",
	Trends:   "data/tendances_climatiques_region.csv",
	Geometry: "data/regions.geojson",
}

func fixtureSource(t *testing.T) *mapSource {
	t.Helper()
	files := map[string]string{}
	for _, name := range []string{fixtureFiles.Yields, fixtureFiles.Trends, fixtureFiles.Geometry} {
		data, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		files[name] = string(data)
	}
	return &mapSource{files: files}
}

// --- tests ---

func TestLoader_Load_HappyPath(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	l := pipeline.NewLoader(fixtureSource(t), fixtureFiles, discardLogger(), metrics)
	require.Error(t, l.CheckReadiness(context.Background()))

	store, err := l.Load(context.Background())
	require.NoError(t, err)

	trends, yields, geoms := store.Counts()
	assert.Equal(t, 3, trends)
	assert.Equal(t, 8, yields)
	assert.Equal(t, 3, geoms)
	assert.Same(t, store, l.Store())
	require.NoError(t, l.CheckReadiness(context.Background()))

	assert.Equal(t, 8.0, testutil.ToFloat64(metrics.DatasetRows.WithLabelValues("yields")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.JoinMisses.WithLabelValues("both")), "Corse has no data")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DatasetsAvailable))
	assert.Equal(t, []string{"Atlantide"}, store.OrphanRegions())
}

func TestLoader_Load_RecordsDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := fixtureSource(t)
	src.onRead = func(name string) {
		if name == fixtureFiles.Yields {
			clock.Advance(2 * time.Second)
		}
	}
	metrics := observability.NewMetricsForTesting()
	l := pipeline.NewLoader(src, fixtureFiles, discardLogger(), metrics).WithClock(clock)

	_, err := l.Load(context.Background())
	require.NoError(t, err)

	out, err := testutil.CollectAndFormat(metrics.LoadDuration, expfmt.TypeTextPlain)
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "agroviz_load_duration_seconds_count 1\n")
	assert.Contains(t, text, "agroviz_load_duration_seconds_sum 2\n")
	assert.Contains(t, text, `agroviz_load_duration_seconds_bucket{le="1"} 0`)
	assert.Contains(t, text, `agroviz_load_duration_seconds_bucket{le="2.5"} 1`)
}

func TestLoader_Load_MissingFile(t *testing.T) {
	src := fixtureSource(t)
	delete(src.files, fixtureFiles.Geometry)
	metrics := observability.NewMetricsForTesting()
	l := pipeline.NewLoader(src, fixtureFiles, discardLogger(), metrics)

	store, err := l.Load(context.Background())
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Nil(t, l.Store(), "nothing partial is kept")
	assert.True(t, errors.Is(err, domain.ErrLoadFailure))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	var le *domain.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, domain.DatasetGeometry, le.Dataset)
	assert.Equal(t, "mem://data/regions.geojson", le.Location)
	assert.Contains(t, le.UserMessage(), "mem://data/regions.geojson")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadFailures.WithLabelValues("geometry")))
	require.Error(t, l.CheckReadiness(context.Background()))
}

func TestLoader_Load_Malformed(t *testing.T) {
	src := fixtureSource(t)
	src.files[fixtureFiles.Trends] = "Région,Réchauffement_total_période,Tendance_temp_par_an\nBretagne,n/a,0.1\n"
	l := pipeline.NewLoader(src, fixtureFiles, discardLogger(), observability.NewMetricsForTesting())

	_, err := l.Load(context.Background())
	var le *domain.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, domain.DatasetTrends, le.Dataset)
	assert.ErrorIs(t, err, pipeline.ErrMalformed)
}

func TestLoader_Load_EmptyDataset(t *testing.T) {
	src := fixtureSource(t)
	src.files[fixtureFiles.Yields] = "Région,Année,Culture,Rendement_qha,Anomalie_temp_C,Anomalie_rendement_pct,Anomalie_precip_pct\n"
	l := pipeline.NewLoader(src, fixtureFiles, discardLogger(), observability.NewMetricsForTesting())

	_, err := l.Load(context.Background())
	var ee *domain.EmptyDatasetError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 3, ee.TrendRows)
	assert.Equal(t, 0, ee.YieldRows)
	assert.False(t, errors.Is(err, domain.ErrLoadFailure))
	assert.Contains(t, domain.UserMessage(err), "rendements")
}

func TestLoader_Load_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := pipeline.NewLoader(fixtureSource(t), fixtureFiles, discardLogger(), observability.NewMetricsForTesting())

	_, err := l.Load(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_Load_DirSource(t *testing.T) {
	src := pipeline.NewSource("testdata", time.Second, discardLogger())
	require.IsType(t, pipeline.DirSource{}, src)
	assert.Equal(t, filepath.Join("testdata", "data", "regions.geojson"), src.Location(fixtureFiles.Geometry))

	store, err := pipeline.NewLoader(src, fixtureFiles, discardLogger(), observability.NewMetricsForTesting()).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, store.YieldsForRegion("Bretagne"), 6)
}

func TestLoader_Load_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.FileServer(http.Dir("testdata")))
	defer srv.Close()

	src := pipeline.NewSource(srv.URL+"/", time.Second, discardLogger())
	require.IsType(t, &pipeline.HTTPSource{}, src)
	assert.Equal(t, srv.URL+"/data/regions.geojson", src.Location(fixtureFiles.Geometry))

	store, err := pipeline.NewLoader(src, fixtureFiles, discardLogger(), observability.NewMetricsForTesting()).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, store.HasGeometry("Corse"))
}

func TestHTTPSource_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	src := pipeline.NewHTTPSource(srv.URL, time.Second, discardLogger())
	_, err := src.Read(context.Background(), "data/regions.geojson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "gone")
}

func TestHTTPSource_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	src := pipeline.NewHTTPSource(srv.URL, 50*time.Millisecond, discardLogger())
	_, err := src.Read(context.Background(), "slow.csv")
	require.Error(t, err)
}
