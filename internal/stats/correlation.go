// Package stats computes the per-crop statistics shown next to the map:
// Pearson correlation, least-squares regression and the region summary.
//
// Every function is pure. Degenerate input (fewer than two points, zero
// variance) yields a sentinel (0 or nil), never an error or NaN.
package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

// Correlation returns the Pearson correlation between temperature anomaly and
// yield anomaly over the records of crop. It returns 0 for fewer than two
// records, for a non-positive denominator and for any non-finite result.
func Correlation(records []domain.YieldRecord, crop domain.Crop) float64 {
	var xs, ys []float64
	for _, r := range records {
		if r.Crop != crop {
			continue
		}
		xs = append(xs, r.TempAnomalyC)
		ys = append(ys, r.YieldAnomalyPct)
	}
	return pearson(xs, ys)
}

// pearson uses the single-pass sum formula:
//
//	r = (nΣxy − ΣxΣy) / sqrt((nΣx² − (Σx)²)(nΣy² − (Σy)²))
func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	// Constant input would leave rounding noise in the denominator.
	if constant(xs) || constant(ys) {
		return 0
	}
	sumX := floats.Sum(xs)
	sumY := floats.Sum(ys)
	sumXY := floats.Dot(xs, ys)
	sumX2 := floats.Dot(xs, xs)
	sumY2 := floats.Dot(ys, ys)

	den := (n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY)
	if !(den > 0) {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / math.Sqrt(den)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

func constant(vs []float64) bool {
	for _, v := range vs[1:] {
		if v != vs[0] {
			return false
		}
	}
	return true
}

// CropsIn returns the distinct crops of records, chart crops first.
func CropsIn(records []domain.YieldRecord) []domain.Crop {
	seen := make(map[domain.Crop]bool)
	var crops []domain.Crop
	for _, r := range records {
		if !seen[r.Crop] {
			seen[r.Crop] = true
			crops = append(crops, r.Crop)
		}
	}
	domain.SortCrops(crops)
	return crops
}

// FilterCrop returns the records of one crop, preserving order.
func FilterCrop(records []domain.YieldRecord, crop domain.Crop) []domain.YieldRecord {
	var out []domain.YieldRecord
	for _, r := range records {
		if r.Crop == crop {
			out = append(out, r)
		}
	}
	return out
}
