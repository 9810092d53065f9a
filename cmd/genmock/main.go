// Command genmock writes a synthetic, reproducible copy of the three datasets
// the explorer loads: the yield file, the regional trend file and the region
// geometry. The output is parsed back with the pipeline parsers before the
// command exits so a fixture that the loader would reject is never written.
//
// Usage:
//
//	go run ./cmd/genmock -out public/data -seed 42
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/pipeline"
)

// File names match the loader defaults.
const (
	yieldsFile   = "data_final_avec_anomalies.csv"
	trendsFile   = "tendances_climatiques_region.csv"
	geometryFile = "regions.geojson"
)

// regionDef is a mainland region drawn as a lon/lat box.
type regionDef struct {
	name       string
	code       string
	box        [4]float64 // minLon, minLat, maxLon, maxLat
	baseWheat  float64    // q/ha
	sunflower  bool
	heatSignal float64 // yield % lost per °C of anomaly
}

var regions = []regionDef{
	{"Hauts-de-France", "32", [4]float64{1.5, 49.2, 4.2, 51.1}, 88, false, 3.5},
	{"Normandie", "28", [4]float64{-1.9, 48.2, 1.5, 50.0}, 85, false, 3.0},
	{"Île-de-France", "11", [4]float64{1.5, 48.1, 3.5, 49.2}, 80, false, 4.0},
	{"Grand Est", "44", [4]float64{4.2, 47.4, 8.2, 50.2}, 76, true, 4.5},
	{"Bretagne", "53", [4]float64{-5.1, 47.3, -1.9, 48.9}, 74, false, 2.5},
	{"Pays de la Loire", "52", [4]float64{-1.9, 46.3, 0.9, 48.2}, 72, true, 4.0},
	{"Centre-Val de Loire", "24", [4]float64{0.9, 46.3, 3.1, 48.1}, 73, true, 5.0},
	{"Bourgogne-Franche-Comté", "27", [4]float64{3.1, 46.2, 7.2, 47.4}, 68, true, 5.5},
	{"Nouvelle-Aquitaine", "75", [4]float64{-1.8, 42.8, 2.6, 46.3}, 64, true, 6.0},
	{"Auvergne-Rhône-Alpes", "84", [4]float64{2.6, 44.1, 7.2, 46.2}, 62, true, 5.0},
	{"Occitanie", "76", [4]float64{2.6, 42.3, 4.8, 44.1}, 52, true, 7.0},
	{"Provence-Alpes-Côte d'Azur", "93", [4]float64{4.8, 43.0, 7.7, 44.1}, 48, true, 6.5},
	// On the map without any yield rows.
	{"Corse", "94", [4]float64{8.5, 41.3, 9.6, 43.0}, 0, false, 0},
}

// orphanTrend has a trend row but no geometry.
const orphanTrend = "Guadeloupe"

// Crop yields relative to wheat.
var cropFactor = map[domain.Crop]float64{
	domain.CropWheat:     1.0,
	domain.CropCorn:      1.25,
	domain.CropSunflower: 0.33,
}

func main() {
	out := flag.String("out", "", "output directory for the three dataset files")
	seed := flag.Uint64("seed", 1, "random seed; the same seed yields byte-identical files")
	semicolon := flag.Bool("semicolon", false, "write ';'-separated CSV with decimal commas")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		log.Fatal("missing required flag: -out")
	}
	if err := run(*out, *seed, *semicolon); err != nil {
		log.Fatal(err)
	}
}

func run(out string, seed uint64, semicolon bool) error {
	ds := generate(seed)

	files := map[string][]byte{}
	var err error
	if files[yieldsFile], err = ds.yieldsCSV(semicolon); err != nil {
		return fmt.Errorf("encode yields: %w", err)
	}
	if files[trendsFile], err = ds.trendsCSV(semicolon); err != nil {
		return fmt.Errorf("encode trends: %w", err)
	}
	if files[geometryFile], err = ds.geometryJSON(); err != nil {
		return fmt.Errorf("encode geometry: %w", err)
	}
	if err := verify(files); err != nil {
		return fmt.Errorf("generated data does not parse: %w", err)
	}

	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}
	for _, name := range []string{yieldsFile, trendsFile, geometryFile} {
		path := filepath.Join(out, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Printf("wrote %s", path)
	}

	printStats(ds)
	return nil
}

// dataset is the generated content of the three files.
type dataset struct {
	yields []domain.YieldRecord
	trends []domain.ClimateTrendRecord
}

// generate builds the rows for every region. Temperature and precipitation
// anomalies are drawn once per region and year and shared by all crops. Both
// anomalies are relative to the region's own period mean, as is each yield
// anomaly to its region and crop mean.
func generate(seed uint64) dataset {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	years := domain.LastYear - domain.FirstYear + 1

	var ds dataset
	for _, reg := range regions {
		warming := round(0.6+rng.Float64()*1.2, 2)
		ds.trends = append(ds.trends, domain.ClimateTrendRecord{
			Region:          reg.name,
			TotalWarming:    warming,
			AnnualTempTrend: round(warming/float64(years-1), 3),
		})
		if reg.baseWheat == 0 {
			continue
		}

		// Warming trend plus year-to-year noise, then centred.
		temps := make([]float64, years)
		precips := make([]*float64, years)
		for i := range temps {
			temps[i] = warming*float64(i)/float64(years-1) + rng.NormFloat64()*0.45
			if rng.Float64() >= 0.1 {
				p := round(rng.NormFloat64()*12, 1)
				precips[i] = &p
			}
		}
		centre(temps)
		for i := range temps {
			temps[i] = round(temps[i], 2)
		}

		crops := []domain.Crop{domain.CropWheat, domain.CropCorn}
		if reg.sunflower {
			crops = append(crops, domain.CropSunflower)
		}
		for _, crop := range crops {
			base := reg.baseWheat * cropFactor[crop]
			ys := make([]float64, years)
			for i := range ys {
				pct := -reg.heatSignal*temps[i] + rng.NormFloat64()*4
				ys[i] = round(base*(1+pct/100), 1)
			}
			mean := meanOf(ys)
			for i, y := range ys {
				ds.yields = append(ds.yields, domain.YieldRecord{
					Region:             reg.name,
					Year:               domain.FirstYear + i,
					Crop:               crop,
					YieldQuintalsPerHa: y,
					TempAnomalyC:       temps[i],
					YieldAnomalyPct:    round((y-mean)/mean*100, 1),
					PrecipAnomalyPct:   precips[i],
				})
			}
		}
	}

	ds.trends = append(ds.trends, domain.ClimateTrendRecord{
		Region:          orphanTrend,
		TotalWarming:    round(0.5+rng.Float64(), 2),
		AnnualTempTrend: 0.08,
	})
	return ds
}

func centre(xs []float64) {
	m := meanOf(xs)
	for i := range xs {
		xs[i] -= m
	}
}

func meanOf(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round(x float64, prec int) float64 {
	p := math.Pow(10, float64(prec))
	return math.Round(x*p) / p
}

// csvWriter writes either comma-separated rows with decimal points or
// semicolon-separated rows with decimal commas.
type csvWriter struct {
	w         *csv.Writer
	semicolon bool
}

func newCSVWriter(buf *bytes.Buffer, semicolon bool) *csvWriter {
	w := csv.NewWriter(buf)
	if semicolon {
		w.Comma = ';'
	}
	return &csvWriter{w: w, semicolon: semicolon}
}

func (c *csvWriter) num(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if c.semicolon {
		return strings.ReplaceAll(s, ".", ",")
	}
	return s
}

func (c *csvWriter) write(row ...string) {
	c.w.Write(row) //nolint:errcheck // checked once by flush
}

func (c *csvWriter) flush() error {
	c.w.Flush()
	return c.w.Error()
}

func (ds dataset) yieldsCSV(semicolon bool) ([]byte, error) {
	var buf bytes.Buffer
	w := newCSVWriter(&buf, semicolon)
	w.write("Région", domain.FieldYear.String(), "Culture",
		domain.FieldYield.String(), domain.FieldTempAnomaly.String(),
		domain.FieldYieldAnomaly.String(), domain.FieldPrecipAnomaly.String())
	for _, r := range ds.yields {
		precip := ""
		if r.PrecipAnomalyPct != nil {
			precip = w.num(*r.PrecipAnomalyPct)
		}
		w.write(r.Region, strconv.Itoa(r.Year), string(r.Crop),
			w.num(r.YieldQuintalsPerHa), w.num(r.TempAnomalyC), w.num(r.YieldAnomalyPct), precip)
	}
	if err := w.flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (ds dataset) trendsCSV(semicolon bool) ([]byte, error) {
	var buf bytes.Buffer
	w := newCSVWriter(&buf, semicolon)
	w.write("Région", "Réchauffement_total_période", "Tendance_temp_par_an")
	for _, t := range ds.trends {
		w.write(t.Region, w.num(t.TotalWarming), w.num(t.AnnualTempTrend))
	}
	if err := w.flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type feature struct {
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties"`
	Geometry   json.RawMessage   `json:"geometry"`
}

func (ds dataset) geometryJSON() ([]byte, error) {
	features := make([]feature, 0, len(regions))
	for _, reg := range regions {
		b := reg.box
		poly := geom.Polygon{{
			{X: b[0], Y: b[1]}, {X: b[2], Y: b[1]}, {X: b[2], Y: b[3]}, {X: b[0], Y: b[3]}, {X: b[0], Y: b[1]},
		}}
		g, err := geojson.Encode(poly)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", reg.name, err)
		}
		features = append(features, feature{
			Type:       "Feature",
			Properties: map[string]string{"code": reg.code, "nom": reg.name},
			Geometry:   g,
		})
	}
	data, err := json.MarshalIndent(map[string]any{
		"type":     "FeatureCollection",
		"features": features,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// verify parses the encoded files the way the loader does.
func verify(files map[string][]byte) error {
	if _, err := pipeline.ParseYields(files[yieldsFile]); err != nil {
		return fmt.Errorf("%s: %w", yieldsFile, err)
	}
	if _, err := pipeline.ParseTrends(files[trendsFile]); err != nil {
		return fmt.Errorf("%s: %w", trendsFile, err)
	}
	if _, err := pipeline.ParseGeometries(files[geometryFile]); err != nil {
		return fmt.Errorf("%s: %w", geometryFile, err)
	}
	return nil
}

func printStats(ds dataset) {
	var missingPrecip int
	perCrop := map[domain.Crop]int{}
	for _, r := range ds.yields {
		perCrop[r.Crop]++
		if r.PrecipAnomalyPct == nil {
			missingPrecip++
		}
	}
	fmt.Println("\n=== Generated dataset ===")
	fmt.Printf("Regions on map: %d (Corse without yields)\n", len(regions))
	fmt.Printf("Trend rows: %d (%s without geometry)\n", len(ds.trends), orphanTrend)
	fmt.Printf("Yield rows: %d\n", len(ds.yields))
	for _, c := range domain.ChartCrops() {
		fmt.Printf("  %s: %d\n", c, perCrop[c])
	}
	fmt.Printf("Rows without precipitation anomaly: %d\n", missingPrecip)
}
