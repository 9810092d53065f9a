package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

// Regression is an ordinary least-squares fit y = Slope*x + Intercept.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`
	R2        float64 `json:"r2"`
	N         int     `json:"n"`
}

// At evaluates the fitted line.
func (g Regression) At(x float64) float64 {
	return g.Slope*x + g.Intercept
}

// LinearRegression fits yField against xField over the records where both
// fields are present. It returns nil for fewer than two usable points or when
// every x is identical.
//
// R2 is 1 - ssResidual/ssTotal (1 when y is constant). R carries the sign of
// the slope, not of the raw correlation: R = sign(slope)*sqrt(|R2|), with a
// zero slope counted as positive.
func LinearRegression(records []domain.YieldRecord, xField, yField domain.Field) *Regression {
	pts := make([][2]float64, 0, len(records))
	for _, r := range records {
		x, okx := r.Value(xField)
		y, oky := r.Value(yField)
		if !okx || !oky {
			continue
		}
		pts = append(pts, [2]float64{x, y})
	}
	return fit(pts)
}

func fit(pts [][2]float64) *Regression {
	if len(pts) < 2 {
		return nil
	}
	// Sorting makes the floating-point sums independent of input order.
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	if pts[0][0] == pts[len(pts)-1][0] {
		return nil
	}

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = p[0], p[1]
	}
	n := float64(len(pts))
	meanX := floats.Sum(xs) / n
	meanY := floats.Sum(ys) / n

	var sxy, sxx float64
	for i := range xs {
		dx := xs[i] - meanX
		sxy += dx * (ys[i] - meanY)
		sxx += dx * dx
	}
	if !(sxx > 0) {
		return nil
	}
	slope := sxy / sxx
	intercept := meanY - slope*meanX

	var ssTotal, ssResidual float64
	for i := range xs {
		d := ys[i] - meanY
		ssTotal += d * d
		e := ys[i] - (slope*xs[i] + intercept)
		ssResidual += e * e
	}

	r2 := 1.0
	if ssTotal > 0 {
		r2 = math.Min(1, 1-ssResidual/ssTotal)
	}
	sign := 1.0
	if slope < 0 {
		sign = -1
	}
	reg := &Regression{
		Slope:     slope,
		Intercept: intercept,
		R2:        r2,
		R:         sign * math.Sqrt(math.Abs(r2)),
		N:         len(pts),
	}
	if !finite(reg.Slope, reg.Intercept, reg.R2, reg.R) {
		return nil
	}
	return reg
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Extent returns the minimum and maximum of field over records where it is
// present. ok is false when no record carries the field.
func Extent(records []domain.YieldRecord, field domain.Field) (lo, hi float64, ok bool) {
	vals := make([]float64, 0, len(records))
	for _, r := range records {
		if v, present := r.Value(field); present {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 0, false
	}
	return floats.Min(vals), floats.Max(vals), true
}
