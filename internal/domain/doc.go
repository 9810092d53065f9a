// Package domain models the three datasets behind the agro-climate explorer
// and the one piece of mutable interaction state shared by the renderers.
//
// # Data Sources
//
// Three files are published next to the web assets (the static-asset base
// path, see config.DataBasePath):
//
//	data_final_avec_anomalies.csv     one row per region x year x crop
//	tendances_climatiques_region.csv  one row per region
//	regions.geojson                   one feature per region
//
// # Column Conventions
//
// Yield file columns:
//
//	Région                  region name, join key
//	Année                   2010..2019
//	Culture                 "Blé" (wheat), "Maïs" (corn), "Tournesol" (sunflower)
//	Rendement_qha           yield in quintals per hectare
//	Anomalie_temp_C         temperature anomaly in °C
//	Anomalie_rendement_pct  yield anomaly in percent of the baseline
//	Anomalie_precip_pct     precipitation anomaly in percent, may be empty
//
// Trend file columns:
//
//	Région                       region name, join key
//	Réchauffement_total_période  cumulative warming over 2010..2019, °C
//	Tendance_temp_par_an         linear temperature trend, °C per year
//
// Geometry features carry the region name in the "nom" property and a
// Polygon or MultiPolygon in WGS-84 longitude/latitude.
//
// # Join Rules
//
// Region identity is byte-exact string equality across the three datasets.
// No case folding, accent stripping or trimming beyond surrounding whitespace
// of CSV cells. A region present in the geometry but absent from the tabular
// data is valid: it renders as "no data" and stays selectable.
//
// # Missing Values
//
// An empty precipitation cell is absent, not zero. [YieldRecord.PrecipForDisplay]
// is the only place that turns an absent value into 0 (labels and tooltips);
// statistics use [YieldRecord.Value], which reports absence.
package domain
