package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

// Interpretation buckets a correlation coefficient for display.
type Interpretation string

const (
	StrongNegative   Interpretation = "strong_negative"
	ModerateNegative Interpretation = "moderate_negative"
	Positive         Interpretation = "positive"
	NoClearLink      Interpretation = "none"
)

// Interpret classifies r: below -0.5 strong negative, below -0.3 moderate
// negative, above 0.3 positive, otherwise no clear link.
func Interpret(r float64) Interpretation {
	switch {
	case r < -0.5:
		return StrongNegative
	case r < -0.3:
		return ModerateNegative
	case r > 0.3:
		return Positive
	default:
		return NoClearLink
	}
}

// Sentence is the French explanation shown under the scatter plot.
func (i Interpretation) Sentence() string {
	switch i {
	case StrongNegative:
		return "Forte corrélation négative : la chaleur réduit significativement les rendements"
	case ModerateNegative:
		return "Corrélation négative modérée : la chaleur tend à réduire les rendements"
	case Positive:
		return "Corrélation positive : la chaleur favorise les rendements"
	default:
		return "Pas de corrélation claire avec la température"
	}
}

// CropSummary holds the per-crop figures of a region.
type CropSummary struct {
	Crop           domain.Crop    `json:"crop"`
	N              int            `json:"n"`
	MeanYield      float64        `json:"mean_yield_qha"`
	Correlation    float64        `json:"correlation"`
	Interpretation Interpretation `json:"interpretation"`
	Explanation    string         `json:"explanation"`
}

// RegionSummary is the headline statistics block of a selected region.
type RegionSummary struct {
	Region          string        `json:"region"`
	Years           int           `json:"years"`
	Records         int           `json:"records"`
	MeanTempAnomaly float64       `json:"mean_temp_anomaly_c"`
	Crops           []CropSummary `json:"crops"`
}

// Summarize computes the summary of one region's records. An empty subset
// gives a zero summary with no crops.
func Summarize(region string, records []domain.YieldRecord) RegionSummary {
	sum := RegionSummary{Region: region, Records: len(records)}
	if len(records) == 0 {
		return sum
	}

	years := make(map[int]bool)
	temps := make([]float64, len(records))
	for i, r := range records {
		years[r.Year] = true
		temps[i] = r.TempAnomalyC
	}
	sum.Years = len(years)
	sum.MeanTempAnomaly = stat.Mean(temps, nil)

	for _, crop := range CropsIn(records) {
		rows := FilterCrop(records, crop)
		yields := make([]float64, len(rows))
		for i, r := range rows {
			yields[i] = r.YieldQuintalsPerHa
		}
		r := Correlation(records, crop)
		in := Interpret(r)
		sum.Crops = append(sum.Crops, CropSummary{
			Crop:           crop,
			N:              len(rows),
			MeanYield:      stat.Mean(yields, nil),
			Correlation:    r,
			Interpretation: in,
			Explanation:    in.Sentence(),
		})
	}
	return sum
}
