package domain

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// RecordStore holds the three loaded datasets for the lifetime of the
// process. It is read-only after construction: accessors hand out copies, so
// it is safe for concurrent readers.
type RecordStore struct {
	trends     []ClimateTrendRecord
	yields     []YieldRecord
	geometries []RegionGeometry

	trendByRegion map[string]ClimateTrendRecord
	yieldIndex    map[string][]int
	geomByRegion  map[string]int
}

// NewRecordStore copies the given records into a new store. When a region
// appears more than once in the trend data, the first row wins.
func NewRecordStore(trends []ClimateTrendRecord, yields []YieldRecord, geometries []RegionGeometry) *RecordStore {
	s := &RecordStore{
		trends:        append([]ClimateTrendRecord(nil), trends...),
		yields:        make([]YieldRecord, len(yields)),
		geometries:    append([]RegionGeometry(nil), geometries...),
		trendByRegion: make(map[string]ClimateTrendRecord, len(trends)),
		yieldIndex:    make(map[string][]int),
		geomByRegion:  make(map[string]int, len(geometries)),
	}
	for i, y := range yields {
		s.yields[i] = cloneYield(y)
		s.yieldIndex[y.Region] = append(s.yieldIndex[y.Region], i)
	}
	for _, t := range s.trends {
		if _, dup := s.trendByRegion[t.Region]; !dup {
			s.trendByRegion[t.Region] = t
		}
	}
	for i, g := range s.geometries {
		if _, dup := s.geomByRegion[g.Name]; !dup {
			s.geomByRegion[g.Name] = i
		}
	}
	return s
}

func cloneYield(y YieldRecord) YieldRecord {
	if y.PrecipAnomalyPct != nil {
		v := *y.PrecipAnomalyPct
		y.PrecipAnomalyPct = &v
	}
	return y
}

// Trends returns a copy of the trend records.
func (s *RecordStore) Trends() []ClimateTrendRecord {
	return append([]ClimateTrendRecord(nil), s.trends...)
}

// Geometries returns the region geometries in file order. Boundaries are
// shared, not copied; callers must treat them as read-only.
func (s *RecordStore) Geometries() []RegionGeometry {
	return append([]RegionGeometry(nil), s.geometries...)
}

// Trend returns the trend record of a region.
func (s *RecordStore) Trend(region string) (ClimateTrendRecord, bool) {
	t, ok := s.trendByRegion[region]
	return t, ok
}

// HasGeometry reports whether region is one of the geometry features.
func (s *RecordStore) HasGeometry(region string) bool {
	_, ok := s.geomByRegion[region]
	return ok
}

// YieldsForRegion returns the yield records whose region equals region
// exactly, in file order.
func (s *RecordStore) YieldsForRegion(region string) []YieldRecord {
	idx := s.yieldIndex[region]
	out := make([]YieldRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, cloneYield(s.yields[i]))
	}
	return out
}

// Counts returns the number of trend rows, yield rows and geometry features.
func (s *RecordStore) Counts() (trends, yields, geometries int) {
	return len(s.trends), len(s.yields), len(s.geometries)
}

// RegionNames returns the geometry region names in French collation order.
func (s *RecordStore) RegionNames() []string {
	names := make([]string, 0, len(s.geometries))
	seen := make(map[string]bool, len(s.geometries))
	for _, g := range s.geometries {
		if seen[g.Name] {
			continue
		}
		seen[g.Name] = true
		names = append(names, g.Name)
	}
	SortRegionNames(names)
	return names
}

// SortRegionNames sorts names in place using French collation, so that
// "Île-de-France" sorts among the I's rather than after "Provence".
func SortRegionNames(names []string) {
	collate.New(language.French).SortStrings(names)
}

// RegionJoin describes how one geometry region joins to the tabular data.
type RegionJoin struct {
	Region    string `json:"region"`
	HasTrend  bool   `json:"has_trend"`
	YieldRows int    `json:"yield_rows"`
	HasYields bool   `json:"has_yields"`
	NoData    bool   `json:"no_data"`
}

// JoinReport lists every geometry region with its join status, in French
// collation order. A region without trend or yield rows is a join miss; it is
// reported, never treated as an error.
func (s *RecordStore) JoinReport() []RegionJoin {
	names := s.RegionNames()
	out := make([]RegionJoin, 0, len(names))
	for _, name := range names {
		_, hasTrend := s.trendByRegion[name]
		rows := len(s.yieldIndex[name])
		out = append(out, RegionJoin{
			Region:    name,
			HasTrend:  hasTrend,
			YieldRows: rows,
			HasYields: rows > 0,
			NoData:    !hasTrend && rows == 0,
		})
	}
	return out
}

// OrphanRegions returns tabular region names that have no geometry feature.
// They are never drawn on the map.
func (s *RecordStore) OrphanRegions() []string {
	seen := map[string]bool{}
	var out []string
	add := func(name string) {
		if seen[name] || s.HasGeometry(name) {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, t := range s.trends {
		add(t.Region)
	}
	for _, y := range s.yields {
		add(y.Region)
	}
	SortRegionNames(out)
	return out
}
