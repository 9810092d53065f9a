// Package pipeline loads the three source datasets and joins them into a
// read-only domain.RecordStore.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/sourcegraph/conc/pool"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/observability"
)

// Files names the three dataset files relative to the source.
type Files struct {
	Yields   string
	Trends   string
	Geometry string
}

// Loader reads, parses and joins the datasets once.
type Loader struct {
	source  Source
	files   Files
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	store   atomic.Pointer[domain.RecordStore]
}

// NewLoader creates a Loader over source.
func NewLoader(source Source, files Files, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		source:  source,
		files:   files,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock used for load timing.
func (l *Loader) WithClock(c clockwork.Clock) *Loader {
	l.clock = c
	return l
}

// CheckReadiness returns nil once the datasets have been loaded and joined.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if l.store.Load() == nil {
		return errors.New("datasets have not been loaded")
	}
	return nil
}

// Store returns the loaded store, or nil before a successful Load.
func (l *Loader) Store() *domain.RecordStore {
	return l.store.Load()
}

// Load reads the three datasets in parallel. The first failure cancels the
// others and is returned as a *domain.LoadError; nothing partial is kept.
// A load whose trend or yield file has no rows fails with
// *domain.EmptyDatasetError.
func (l *Loader) Load(ctx context.Context) (*domain.RecordStore, error) {
	start := l.clock.Now()

	var (
		yields []domain.YieldRecord
		trends []domain.ClimateTrendRecord
		geoms  []domain.RegionGeometry
	)

	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		return l.loadOne(ctx, domain.DatasetYields, l.files.Yields, func(b []byte) (n int, err error) {
			yields, err = ParseYields(b)
			return len(yields), err
		})
	})
	p.Go(func(ctx context.Context) error {
		return l.loadOne(ctx, domain.DatasetTrends, l.files.Trends, func(b []byte) (n int, err error) {
			trends, err = ParseTrends(b)
			return len(trends), err
		})
	})
	p.Go(func(ctx context.Context) error {
		return l.loadOne(ctx, domain.DatasetGeometry, l.files.Geometry, func(b []byte) (n int, err error) {
			geoms, err = ParseGeometries(b)
			return len(geoms), err
		})
	})
	if err := p.Wait(); err != nil {
		l.metrics.DatasetsAvailable.Set(0)
		return nil, err
	}

	if len(trends) == 0 || len(yields) == 0 {
		l.metrics.DatasetsAvailable.Set(0)
		return nil, &domain.EmptyDatasetError{TrendRows: len(trends), YieldRows: len(yields)}
	}

	store := domain.NewRecordStore(trends, yields, geoms)
	l.reportJoin(store)
	l.store.Store(store)
	l.metrics.DatasetsAvailable.Set(1)
	l.metrics.LoadDuration.Observe(l.clock.Since(start).Seconds())
	trendRows, yieldRows, regions := store.Counts()
	l.logger.Info("datasets loaded",
		"yields", yieldRows,
		"trends", trendRows,
		"regions", regions,
		"duration", l.clock.Since(start),
	)
	l.logger.Debug("first yield row", "record", yields[0])
	return store, nil
}

// loadOne reads and parses one dataset, wrapping any failure in a LoadError.
func (l *Loader) loadOne(ctx context.Context, ds domain.Dataset, name string, parse func([]byte) (int, error)) error {
	start := l.clock.Now()
	loc := l.source.Location(name)

	data, err := l.source.Read(ctx, name)
	if err == nil {
		var n int
		n, err = parse(data)
		if err == nil {
			l.metrics.DatasetRows.WithLabelValues(string(ds)).Set(float64(n))
			l.metrics.DatasetFetch.WithLabelValues(string(ds)).Observe(l.clock.Since(start).Seconds())
			l.logger.Debug("dataset parsed", "dataset", ds, "location", loc, "rows", n)
			return nil
		}
	}

	l.metrics.LoadFailures.WithLabelValues(string(ds)).Inc()
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		l.logger.Debug("dataset load cancelled", "dataset", ds)
	} else {
		l.logger.Error("dataset load failed", "dataset", ds, "location", loc, "error", err)
	}
	return &domain.LoadError{Dataset: ds, Location: loc, Err: err}
}

// reportJoin logs geometry regions without tabular data and tabular regions
// without geometry. Neither is an error.
func (l *Loader) reportJoin(store *domain.RecordStore) {
	var noTrend, noYields, both int
	for _, j := range store.JoinReport() {
		switch {
		case j.NoData:
			both++
		case !j.HasTrend:
			noTrend++
		case !j.HasYields:
			noYields++
		default:
			continue
		}
		l.logger.Debug("join miss", "region", j.Region, "has_trend", j.HasTrend, "yield_rows", j.YieldRows)
	}
	l.metrics.JoinMisses.WithLabelValues("trend").Set(float64(noTrend))
	l.metrics.JoinMisses.WithLabelValues("yields").Set(float64(noYields))
	l.metrics.JoinMisses.WithLabelValues("both").Set(float64(both))

	for _, name := range store.OrphanRegions() {
		l.logger.Debug("region has data but no geometry", "region", name)
	}
}
