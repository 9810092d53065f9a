// Command validate performs integrity checks on the three datasets the
// explorer loads: the yield file, the regional trend file and the region
// geometry. It verifies that the files parse, that regions join across files,
// that each region and year carries one climate reading shared by all crops,
// and that the anomaly columns agree with the raw values.
//
// Usage:
//
//	go run ./cmd/validate -data public
//	go run ./cmd/validate -data https://example.org/agro -tolerance 1
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/pipeline"
)

// phase tracks pass/fail for a validation phase. Warnings are reported but do
// not fail the phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// datasets holds the parsed content of the three files.
type datasets struct {
	yields []domain.YieldRecord
	trends []domain.ClimateTrendRecord
	geoms  []domain.RegionGeometry
}

func main() {
	data := flag.String("data", "public", "dataset base path: a directory or an http(s) URL")
	yields := flag.String("yields", "data/data_final_avec_anomalies.csv", "yield file, relative to -data")
	trends := flag.String("trends", "data/tendances_climatiques_region.csv", "trend file, relative to -data")
	geometry := flag.String("geometry", "data/regions.geojson", "geometry file, relative to -data")
	tolerance := flag.Float64("tolerance", 0.5, "allowed gap, in percentage points, between a yield anomaly and its recomputed value")
	timeout := flag.Duration("timeout", 10*time.Second, "fetch timeout for http(s) data")
	flag.Parse()

	logger := sharedobs.NewLogger("warn", "text")
	source := pipeline.NewSource(*data, *timeout, logger)
	files := pipeline.Files{Yields: *yields, Trends: *trends, Geometry: *geometry}

	os.Exit(run(context.Background(), os.Stdout, source, files, *tolerance))
}

func run(ctx context.Context, out io.Writer, source pipeline.Source, files pipeline.Files, tolerance float64) int {
	fmt.Fprintln(out, "=== Agro-Climate Dataset Validation ===")
	fmt.Fprintln(out)

	ds, parse := load(ctx, source, files)
	phases := []*phase{parse}
	if parse.passed() {
		phases = append(phases,
			validateJoin(ds),
			validateCoverage(ds),
			validateClimate(ds),
			validateAnomalies(ds, tolerance),
		)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		if len(p.warnings) > 0 {
			status += fmt.Sprintf(" \033[33m%d warnings\033[0m", len(p.warnings))
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Records: %d yield rows, %d trend rows, %d geometry features\n",
		len(ds.yields), len(ds.trends), len(ds.geoms))

	for _, p := range phases {
		if p.passed() && len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Fprintf(out, "  warning: %s\n", w)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: parsing ──

func load(ctx context.Context, source pipeline.Source, files pipeline.Files) (datasets, *phase) {
	p := &phase{name: "Phase 1: Parse (yields, trends, geometry)"}
	var ds datasets

	read := func(name string) []byte {
		data, err := source.Read(ctx, name)
		if err != nil {
			p.errorf("read %s: %v", source.Location(name), err)
			return nil
		}
		return data
	}

	if data := read(files.Yields); data != nil {
		var err error
		if ds.yields, err = pipeline.ParseYields(data); err != nil {
			p.errorf("%s: %v", files.Yields, err)
		}
	}
	if data := read(files.Trends); data != nil {
		var err error
		if ds.trends, err = pipeline.ParseTrends(data); err != nil {
			p.errorf("%s: %v", files.Trends, err)
		}
	}
	if data := read(files.Geometry); data != nil {
		var err error
		if ds.geoms, err = pipeline.ParseGeometries(data); err != nil {
			p.errorf("%s: %v", files.Geometry, err)
		}
	}

	if p.passed() {
		if len(ds.yields) == 0 {
			p.errorf("%s: no yield rows", files.Yields)
		}
		if len(ds.trends) == 0 {
			p.errorf("%s: no trend rows", files.Trends)
		}
		if len(ds.geoms) == 0 {
			p.errorf("%s: no features", files.Geometry)
		}
	}
	return ds, p
}

// ── Phase 2: joins ──

// France's bounding box, loosely, in degrees.
const (
	minLon, maxLon = -6.0, 10.0
	minLat, maxLat = 41.0, 52.0
)

func validateJoin(ds datasets) *phase {
	p := &phase{name: "Phase 2: Region Join (names across files)"}
	store := domain.NewRecordStore(ds.trends, ds.yields, ds.geoms)

	seen := map[string]bool{}
	for _, g := range ds.geoms {
		if seen[g.Name] {
			p.errorf("geometry: duplicate feature %q", g.Name)
		}
		seen[g.Name] = true

		b := g.Boundary.Bounds()
		if b.Max.X-b.Min.X <= 0 || b.Max.Y-b.Min.Y <= 0 {
			p.errorf("geometry: %s has an empty boundary", g.Name)
			continue
		}
		if b.Min.X < minLon || b.Max.X > maxLon || b.Min.Y < minLat || b.Max.Y > maxLat {
			p.warnf("geometry: %s extends outside mainland France and Corsica", g.Name)
		}
	}

	trendSeen := map[string]bool{}
	for _, t := range ds.trends {
		if trendSeen[t.Region] {
			p.errorf("trends: duplicate row for %q", t.Region)
		}
		trendSeen[t.Region] = true
	}

	for _, j := range store.JoinReport() {
		switch {
		case j.NoData:
			p.warnf("%s: on the map without trend or yield rows", j.Region)
		case !j.HasTrend:
			p.warnf("%s: yield rows but no trend row", j.Region)
		case !j.HasYields:
			p.warnf("%s: trend row but no yield rows", j.Region)
		}
	}
	for _, name := range store.OrphanRegions() {
		if len(store.YieldsForRegion(name)) > 0 {
			p.errorf("%s: %d yield rows but no geometry, so the region can never be selected",
				name, len(store.YieldsForRegion(name)))
			continue
		}
		p.warnf("%s: trend row but no geometry", name)
	}
	return p
}

// ── Phase 3: row coverage ──

type rowKey struct {
	region string
	year   int
	crop   domain.Crop
}

type seriesKey struct {
	region string
	crop   domain.Crop
}

func validateCoverage(ds datasets) *phase {
	p := &phase{name: "Phase 3: Coverage (one row per region, year, crop)"}

	rows := map[rowKey]int{}
	years := map[seriesKey]map[int]bool{}
	for _, r := range ds.yields {
		k := rowKey{r.Region, r.Year, r.Crop}
		rows[k]++
		if rows[k] == 2 {
			p.errorf("%s %d %s: duplicate row", r.Region, r.Year, r.Crop)
		}
		sk := seriesKey{r.Region, r.Crop}
		if years[sk] == nil {
			years[sk] = map[int]bool{}
		}
		years[sk][r.Year] = true
		if !r.Crop.IsChartCrop() {
			p.warnf("%s %d: crop %q is not charted", r.Region, r.Year, r.Crop)
		}
	}

	for _, sk := range sortedSeries(years) {
		if n := len(years[sk]); n < 2 {
			p.warnf("%s %s: only %d year, too few for a correlation", sk.region, sk.crop, n)
		}
	}
	return p
}

// ── Phase 4: climate readings ──

type regionYear struct {
	region string
	year   int
}

// climateEps absorbs rounding in the source's two-decimal anomalies.
const climateEps = 0.005

func validateClimate(ds datasets) *phase {
	p := &phase{name: "Phase 4: Climate (shared per region and year)"}

	first := map[regionYear]domain.YieldRecord{}
	for _, r := range ds.yields {
		k := regionYear{r.Region, r.Year}
		ref, ok := first[k]
		if !ok {
			first[k] = r
			continue
		}
		if math.Abs(ref.TempAnomalyC-r.TempAnomalyC) > climateEps {
			p.errorf("%s %d: temperature anomaly %.2f for %s but %.2f for %s",
				r.Region, r.Year, ref.TempAnomalyC, ref.Crop, r.TempAnomalyC, r.Crop)
		}
		if (ref.PrecipAnomalyPct == nil) != (r.PrecipAnomalyPct == nil) {
			p.warnf("%s %d: precipitation anomaly present for only some crops", r.Region, r.Year)
		} else if ref.PrecipAnomalyPct != nil && math.Abs(*ref.PrecipAnomalyPct-*r.PrecipAnomalyPct) > climateEps {
			p.errorf("%s %d: precipitation anomaly %.1f for %s but %.1f for %s",
				r.Region, r.Year, *ref.PrecipAnomalyPct, ref.Crop, *r.PrecipAnomalyPct, r.Crop)
		}
	}

	span := float64(domain.LastYear - domain.FirstYear)
	for _, t := range ds.trends {
		if t.TotalWarming < 0 {
			p.warnf("%s: negative total warming %.2f°C", t.Region, t.TotalWarming)
		}
		if math.Abs(t.AnnualTempTrend*span-t.TotalWarming) > 0.05 {
			p.warnf("%s: trend %.3f°C/year over %d years disagrees with total warming %.2f°C",
				t.Region, t.AnnualTempTrend, int(span), t.TotalWarming)
		}
	}
	return p
}

// ── Phase 5: anomalies ──

func validateAnomalies(ds datasets, tolerance float64) *phase {
	p := &phase{name: "Phase 5: Anomalies (vs. regional crop mean)"}

	groups := map[seriesKey][]domain.YieldRecord{}
	for _, r := range ds.yields {
		k := seriesKey{r.Region, r.Crop}
		groups[k] = append(groups[k], r)
	}

	for _, k := range sortedSeries(groups) {
		rows := groups[k]
		var sum float64
		for _, r := range rows {
			sum += r.YieldQuintalsPerHa
		}
		mean := sum / float64(len(rows))
		if mean <= 0 {
			p.errorf("%s %s: mean yield %.1f q/ha is not positive", k.region, k.crop, mean)
			continue
		}
		for _, r := range rows {
			want := (r.YieldQuintalsPerHa - mean) / mean * 100
			if math.Abs(want-r.YieldAnomalyPct) > tolerance {
				p.errorf("%s %d %s: yield anomaly %.1f%%, expected %.1f%% from %.1f q/ha against a mean of %.1f",
					r.Region, r.Year, r.Crop, r.YieldAnomalyPct, want, r.YieldQuintalsPerHa, mean)
			}
		}
	}
	return p
}

// sortedSeries returns map keys ordered by region, then crop, for stable output.
func sortedSeries[V any](m map[seriesKey]V) []seriesKey {
	keys := make([]seriesKey, 0, len(m))
	regionSet := map[string]bool{}
	for k := range m {
		keys = append(keys, k)
		regionSet[k.region] = true
	}
	regions := make([]string, 0, len(regionSet))
	for r := range regionSet {
		regions = append(regions, r)
	}
	domain.SortRegionNames(regions)
	rank := make(map[string]int, len(regions))
	for i, r := range regions {
		rank[r] = i
	}

	crops := make([]domain.Crop, 0, len(keys))
	cropSet := map[domain.Crop]bool{}
	for _, k := range keys {
		if !cropSet[k.crop] {
			cropSet[k.crop] = true
			crops = append(crops, k.crop)
		}
	}
	domain.SortCrops(crops)
	cropRank := make(map[domain.Crop]int, len(crops))
	for i, c := range crops {
		cropRank[c] = i
	}

	slices.SortFunc(keys, func(a, b seriesKey) int {
		if d := rank[a.region] - rank[b.region]; d != 0 {
			return d
		}
		return cropRank[a.crop] - cropRank[b.crop]
	})
	return keys
}
