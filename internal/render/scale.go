package render

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// LinearScale maps a continuous domain onto a pixel range.
type LinearScale struct {
	D0, D1 float64 // domain
	R0, R1 float64 // range
}

// NewLinearScale builds a scale from domain [d0, d1] to range [r0, r1].
func NewLinearScale(d0, d1, r0, r1 float64) LinearScale {
	return LinearScale{D0: d0, D1: d1, R0: r0, R1: r1}
}

// Map projects v. A degenerate domain maps everything to the range midpoint.
func (s LinearScale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Padded widens a degenerate domain by pad on each side.
func (s LinearScale) Padded(pad float64) LinearScale {
	if s.D0 == s.D1 {
		s.D0 -= pad
		s.D1 += pad
	}
	return s
}

// Nice extends the domain outward to round tick boundaries, the way d3 does.
func (s LinearScale) Nice(count int) LinearScale {
	d0, d1 := s.D0, s.D1
	reversed := d1 < d0
	if reversed {
		d0, d1 = d1, d0
	}
	prev := 0.0
	for i := 0; i < 10; i++ {
		step := tickStep(d0, d1, count)
		if step == prev || step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
			break
		}
		d0 = math.Floor(d0/step) * step
		d1 = math.Ceil(d1/step) * step
		prev = step
	}
	if reversed {
		d0, d1 = d1, d0
	}
	s.D0, s.D1 = d0, d1
	return s
}

// Ticks returns round values inside the domain, about count of them.
func (s LinearScale) Ticks(count int) []float64 {
	lo, hi := math.Min(s.D0, s.D1), math.Max(s.D0, s.D1)
	step := tickStep(lo, hi, count)
	if step <= 0 || math.IsInf(step, 0) || math.IsNaN(step) {
		return []float64{lo}
	}
	first := math.Ceil(lo/step - 1e-9)
	last := math.Floor(hi/step + 1e-9)
	ticks := make([]float64, 0, int(last-first)+1)
	for i := first; i <= last; i++ {
		ticks = append(ticks, roundTo(i*step, step))
	}
	return ticks
}

// tickStep mirrors d3's tick increment: 1, 2, 5 or 10 times a power of ten.
func tickStep(lo, hi float64, count int) float64 {
	if count <= 0 {
		count = 10
	}
	raw := (hi - lo) / float64(count)
	if raw <= 0 {
		return 0
	}
	power := math.Floor(math.Log10(raw))
	err := raw / math.Pow(10, power)
	factor := 1.0
	switch {
	case err >= math.Sqrt(50):
		factor = 10
	case err >= math.Sqrt(10):
		factor = 5
	case err >= math.Sqrt(2):
		factor = 2
	}
	return factor * math.Pow(10, power)
}

func roundTo(v, step float64) float64 {
	decimals := math.Max(0, -math.Floor(math.Log10(step))+1)
	p := math.Pow(10, decimals)
	return math.Round(v*p) / p
}

// ylOrRd is the 9-class ColorBrewer YlOrRd scheme, pale to saturated.
var ylOrRd = []drawing.Color{
	drawing.ColorFromHex("ffffcc"),
	drawing.ColorFromHex("ffeda0"),
	drawing.ColorFromHex("fed976"),
	drawing.ColorFromHex("feb24c"),
	drawing.ColorFromHex("fd8d3c"),
	drawing.ColorFromHex("fc4e2a"),
	drawing.ColorFromHex("e31a1c"),
	drawing.ColorFromHex("bd0026"),
	drawing.ColorFromHex("800026"),
}

// SequentialScale maps [0, Max] onto the YlOrRd gradient. Values outside the
// domain clamp to the nearest end.
type SequentialScale struct {
	Max float64
}

// NewWarmingScale builds the map color scale from the largest absolute
// warming value.
func NewWarmingScale(values []float64) SequentialScale {
	max := 0.0
	for _, v := range values {
		if a := math.Abs(v); a > max && !math.IsInf(a, 0) {
			max = a
		}
	}
	return SequentialScale{Max: max}
}

// Low and High are the two ends of the gradient.
func (s SequentialScale) Low() drawing.Color  { return ylOrRd[0] }
func (s SequentialScale) High() drawing.Color { return ylOrRd[len(ylOrRd)-1] }

// Color returns the gradient color of v.
func (s SequentialScale) Color(v float64) drawing.Color {
	if !(s.Max > 0) || math.IsNaN(v) || v <= 0 {
		return s.Low()
	}
	t := v / s.Max
	if t >= 1 {
		return s.High()
	}
	pos := t * float64(len(ylOrRd)-1)
	i := int(pos)
	frac := pos - float64(i)
	a, b := ylOrRd[i], ylOrRd[i+1]
	return drawing.Color{
		R: lerp8(a.R, b.R, frac),
		G: lerp8(a.G, b.G, frac),
		B: lerp8(a.B, b.B, frac),
		A: 255,
	}
}

func lerp8(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
