package domain

import (
	"sort"
	"strings"

	"github.com/ctessum/geom"
)

// Analysed period.
const (
	FirstYear = 2010
	LastYear  = 2019
)

// Crop identifies a crop by the label used in the source data.
// Any string found in the data is a valid Crop; the three constants below are
// the fixed set drawn by the charts.
type Crop string

const (
	CropWheat     Crop = "Blé"
	CropCorn      Crop = "Maïs"
	CropSunflower Crop = "Tournesol"
)

// ChartCrops returns the fixed chart crops in drawing order.
func ChartCrops() []Crop {
	return []Crop{CropWheat, CropCorn, CropSunflower}
}

// EnglishName returns the English name of a chart crop, or the raw label.
func (c Crop) EnglishName() string {
	switch c {
	case CropWheat:
		return "Wheat"
	case CropCorn:
		return "Corn"
	case CropSunflower:
		return "Sunflower"
	default:
		return string(c)
	}
}

// IsChartCrop reports whether c is one of the three fixed crops.
func (c Crop) IsChartCrop() bool {
	return c == CropWheat || c == CropCorn || c == CropSunflower
}

// ParseCrop resolves an English or French crop name, case-insensitively.
// Unknown non-empty names are returned as-is so data-only crops stay usable.
func ParseCrop(s string) (Crop, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, c := range ChartCrops() {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.EnglishName()) {
			return c, true
		}
	}
	return Crop(s), true
}

// SortCrops orders crops with the chart crops first, in their fixed order,
// followed by any other labels in lexicographic order.
func SortCrops(crops []Crop) {
	rank := func(c Crop) int {
		for i, cc := range ChartCrops() {
			if c == cc {
				return i
			}
		}
		return len(ChartCrops())
	}
	sort.SliceStable(crops, func(i, j int) bool {
		ri, rj := rank(crops[i]), rank(crops[j])
		if ri != rj {
			return ri < rj
		}
		return crops[i] < crops[j]
	})
}

// ClimateTrendRecord is one row of the regional trend file.
type ClimateTrendRecord struct {
	Region          string  `json:"region"`
	TotalWarming    float64 `json:"total_warming"`     // °C over the period
	AnnualTempTrend float64 `json:"annual_temp_trend"` // °C per year
}

// YieldRecord is one region x year x crop row of the yield file.
type YieldRecord struct {
	Region             string   `json:"region"`
	Year               int      `json:"year"`
	Crop               Crop     `json:"crop"`
	YieldQuintalsPerHa float64  `json:"yield_qha"`
	TempAnomalyC       float64  `json:"temp_anomaly_c"`
	YieldAnomalyPct    float64  `json:"yield_anomaly_pct"`
	PrecipAnomalyPct   *float64 `json:"precip_anomaly_pct"`
}

// PrecipForDisplay returns the precipitation anomaly, or 0 when absent.
func (r YieldRecord) PrecipForDisplay() float64 {
	if r.PrecipAnomalyPct == nil {
		return 0
	}
	return *r.PrecipAnomalyPct
}

// Field names a numeric column of YieldRecord.
type Field int

const (
	FieldYear Field = iota
	FieldYield
	FieldTempAnomaly
	FieldYieldAnomaly
	FieldPrecipAnomaly
)

func (f Field) String() string {
	switch f {
	case FieldYear:
		return "Année"
	case FieldYield:
		return "Rendement_qha"
	case FieldTempAnomaly:
		return "Anomalie_temp_C"
	case FieldYieldAnomaly:
		return "Anomalie_rendement_pct"
	case FieldPrecipAnomaly:
		return "Anomalie_precip_pct"
	default:
		return "unknown"
	}
}

// Value returns the field value. ok is false when the value is absent
// (missing precipitation) or the field is unknown.
func (r YieldRecord) Value(f Field) (v float64, ok bool) {
	switch f {
	case FieldYear:
		return float64(r.Year), true
	case FieldYield:
		return r.YieldQuintalsPerHa, true
	case FieldTempAnomaly:
		return r.TempAnomalyC, true
	case FieldYieldAnomaly:
		return r.YieldAnomalyPct, true
	case FieldPrecipAnomaly:
		if r.PrecipAnomalyPct == nil {
			return 0, false
		}
		return *r.PrecipAnomalyPct, true
	default:
		return 0, false
	}
}

// ClimateVariable selects the right-axis series of the timeline.
type ClimateVariable string

const (
	VariableTemperature   ClimateVariable = "temperature"
	VariablePrecipitation ClimateVariable = "precipitation"
)

// ParseClimateVariable accepts "temperature" or "precipitation" (any case).
func ParseClimateVariable(s string) (ClimateVariable, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(VariableTemperature), "temp", "température":
		return VariableTemperature, true
	case string(VariablePrecipitation), "precip", "précipitations":
		return VariablePrecipitation, true
	default:
		return "", false
	}
}

// Field returns the record field carrying the variable's anomaly.
func (v ClimateVariable) Field() Field {
	if v == VariablePrecipitation {
		return FieldPrecipAnomaly
	}
	return FieldTempAnomaly
}

// Unit is the axis unit of the variable's anomaly.
func (v ClimateVariable) Unit() string {
	if v == VariablePrecipitation {
		return "%"
	}
	return "°C"
}

// Label is the French axis title.
func (v ClimateVariable) Label() string {
	if v == VariablePrecipitation {
		return "Anomalie précipitations (%)"
	}
	return "Anomalie température (°C)"
}

// RegionGeometry is one feature of the region geometry file.
type RegionGeometry struct {
	Name     string
	Boundary geom.Polygonal // longitude/latitude degrees
}
