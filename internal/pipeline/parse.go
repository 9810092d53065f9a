package pipeline

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
)

// Column headers of the two tabular files.
const (
	colRegion       = "Région"
	colYear         = "Année"
	colCrop         = "Culture"
	colYield        = "Rendement_qha"
	colTempAnomaly  = "Anomalie_temp_C"
	colYieldAnomaly = "Anomalie_rendement_pct"
	colPrecip       = "Anomalie_precip_pct"
	colWarming      = "Réchauffement_total_période"
	colTrend        = "Tendance_temp_par_an"
)

// ErrMalformed marks a file whose content cannot be parsed.
var ErrMalformed = errors.New("malformed dataset")

// table is a header-indexed CSV.
type table struct {
	index map[string]int
	rows  [][]string
	comma rune
}

func readTable(data []byte, required ...string) (*table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	comma := sniffDelimiter(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: no header row", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	t := &table{index: make(map[string]int, len(header)), comma: comma}
	for i, h := range header {
		t.index[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := t.index[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrMalformed, col)
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if blank(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// sniffDelimiter picks ';' when the header uses it and has no comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.IndexByte(line, ';') >= 0 && bytes.IndexByte(line, ',') < 0 {
		return ';'
	}
	return ','
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func (t *table) get(row []string, col string) string {
	i := t.index[col]
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// float parses a numeric cell. ok is false for an empty cell.
func (t *table) float(row []string, col string) (v float64, ok bool, err error) {
	s := t.get(row, col)
	if s == "" {
		return 0, false, nil
	}
	if t.comma == ';' {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%w: column %s: invalid number %q", ErrMalformed, col, s)
	}
	return v, true, nil
}

func (t *table) requiredFloat(row []string, col string) (float64, error) {
	v, ok, err := t.float(row, col)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: column %s: empty value", ErrMalformed, col)
	}
	return v, nil
}

// ParseYields parses the yield file. Empty precipitation cells are absent
// values; any other empty or non-numeric cell, or a year outside the analysed
// period, makes the file malformed.
func ParseYields(data []byte) ([]domain.YieldRecord, error) {
	t, err := readTable(data, colRegion, colYear, colCrop, colYield, colTempAnomaly, colYieldAnomaly, colPrecip)
	if err != nil {
		return nil, err
	}
	out := make([]domain.YieldRecord, 0, len(t.rows))
	for i, row := range t.rows {
		rec, err := t.yieldRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (t *table) yieldRecord(row []string) (domain.YieldRecord, error) {
	rec := domain.YieldRecord{
		Region: t.get(row, colRegion),
		Crop:   domain.Crop(t.get(row, colCrop)),
	}
	if rec.Region == "" {
		return rec, fmt.Errorf("%w: column %s: empty value", ErrMalformed, colRegion)
	}
	if rec.Crop == "" {
		return rec, fmt.Errorf("%w: column %s: empty value", ErrMalformed, colCrop)
	}

	year, err := t.requiredFloat(row, colYear)
	if err != nil {
		return rec, err
	}
	if year != math.Trunc(year) || year < domain.FirstYear || year > domain.LastYear {
		return rec, fmt.Errorf("%w: column %s: year %v outside %d-%d", ErrMalformed, colYear, year, domain.FirstYear, domain.LastYear)
	}
	rec.Year = int(year)

	if rec.YieldQuintalsPerHa, err = t.requiredFloat(row, colYield); err != nil {
		return rec, err
	}
	if rec.TempAnomalyC, err = t.requiredFloat(row, colTempAnomaly); err != nil {
		return rec, err
	}
	if rec.YieldAnomalyPct, err = t.requiredFloat(row, colYieldAnomaly); err != nil {
		return rec, err
	}
	precip, ok, err := t.float(row, colPrecip)
	if err != nil {
		return rec, err
	}
	if ok {
		rec.PrecipAnomalyPct = &precip
	}
	return rec, nil
}

// ParseTrends parses the regional trend file.
func ParseTrends(data []byte) ([]domain.ClimateTrendRecord, error) {
	t, err := readTable(data, colRegion, colWarming, colTrend)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ClimateTrendRecord, 0, len(t.rows))
	for i, row := range t.rows {
		rec := domain.ClimateTrendRecord{Region: t.get(row, colRegion)}
		if rec.Region == "" {
			return nil, fmt.Errorf("row %d: %w: column %s: empty value", i+2, ErrMalformed, colRegion)
		}
		if rec.TotalWarming, err = t.requiredFloat(row, colWarming); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if rec.AnnualTempTrend, err = t.requiredFloat(row, colTrend); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
