package svg

import (
	"fmt"
	"io"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/render"
	"github.com/couchcryptid/agro-climate-viz/internal/session"
	"github.com/couchcryptid/agro-climate-viz/internal/stats"
)

// PageState is what the HTML page shows: a loading notice, a load failure,
// or the frame of the current session.
type PageState struct {
	Loading bool
	Err     error
	Frame   *session.Frame
}

type option struct {
	Value    string
	Label    string
	Selected bool
}

type pageView struct {
	Loading bool
	Error   string

	Selected  string
	NoData    bool
	Message   string
	Filter    render.CropFilter
	Variable  domain.ClimateVariable
	Map       mapView
	Timeline  *timelineView
	Scatter   *scatterView
	Summary   *stats.RegionSummary
	Crops     []option
	Variables []option
}

// Page writes the whole HTML page.
func Page(w io.Writer, st PageState) error {
	v := pageView{Loading: st.Loading}
	switch {
	case st.Err != nil:
		v.Error = domain.UserMessage(st.Err)
	case st.Frame != nil:
		fillFrame(&v, st.Frame)
	default:
		v.Loading = true
	}
	if err := templates.ExecuteTemplate(w, "page", v); err != nil {
		return fmt.Errorf("encode page: %w", err)
	}
	return nil
}

func fillFrame(v *pageView, f *session.Frame) {
	v.Selected = f.Selected
	v.NoData = f.NoData
	v.Message = f.Message
	v.Filter = f.Filter
	v.Variable = f.Variable
	v.Summary = f.Summary
	v.Map = newMapView(f.Map, true)
	if f.Timeline != nil {
		tv := newTimelineView(f.Timeline)
		v.Timeline = &tv
	}
	if f.Scatter != nil {
		sv := newScatterView(f.Scatter)
		v.Scatter = &sv
		for _, o := range f.Scatter.Options {
			v.Crops = append(v.Crops, option{Value: string(o), Label: o.Label(), Selected: o == f.Filter})
		}
	}
	for _, cv := range []domain.ClimateVariable{domain.VariableTemperature, domain.VariablePrecipitation} {
		v.Variables = append(v.Variables, option{Value: string(cv), Label: cv.Label(), Selected: cv == f.Variable})
	}
}

const pageTemplate = `
{{- define "page"}}<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Changement climatique et Agriculture en France</title>
<style>
body{margin:0;font-family:sans-serif;color:#2c3e50;background:#f5f7fa}
.app-header{padding:1.5rem 2rem;background:#2c3e50;color:#fff}
.subtitle{opacity:.85}
main{display:flex;flex-wrap:wrap;gap:1.5rem;padding:1.5rem}
section{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px rgba(0,0,0,.1)}
.loading{padding:3rem;text-align:center}
.error{color:#c0392b}
.stats-grid{display:flex;flex-wrap:wrap;gap:.75rem}
.stat-card{border:1px solid #e1e5ea;border-radius:6px;padding:.5rem .75rem}
.stat-label{font-size:.8rem;color:#7f8c8d}
.stat-value{font-size:1.2rem;font-weight:bold}
.negative{color:#e74c3c}
.neutral{color:#95a5a6}
form{display:inline-block;margin:.5rem 0}
</style>
</head>
<body>
<header class="app-header">
<h1>Changement climatique et Agriculture en France</h1>
<p class="subtitle">Comment l'évolution du climat affecte-t-elle les rendements agricoles du blé, du maïs et du tournesol entre 2010 et 2019 ?</p>
</header>
{{- if .Error}}
<div class="loading"><p class="error">{{.Error}}</p></div>
{{- else if .Loading}}
<div class="loading">Chargement des données...</div>
{{- else}}
<main>
<section class="map-section">
<h2>{{if .Selected}}Région sélectionnée : {{.Selected}}{{else}}Cliquez sur une région pour explorer les données{{end}}</h2>
{{template "map" .Map}}
{{- if .Selected}}
<form method="post" action="/selection/clear"><button type="submit">Effacer la sélection</button></form>
{{- end}}
</section>
{{- if .Selected}}
<section class="detail-section">
{{- if .NoData}}
<div class="region-detail"><p>{{.Message}}</p></div>
{{- else}}
<div class="region-detail">
{{- with .Summary}}
<div class="region-header">
<h2>{{.Region}}</h2>
<div class="stats-grid">
<div class="stat-card"><div class="stat-label">Période analysée</div><div class="stat-value">{{.Years}} années</div></div>
<div class="stat-card"><div class="stat-label">Anomalie de température</div><div class="stat-value">{{signed 2 .MeanTempAnomaly}}°C</div></div>
{{- range .Crops}}
<div class="stat-card"><div class="stat-label">{{.Crop}}</div><div class="stat-value">{{fixed 1 .MeanYield}} q/ha</div><div class="stat-correlation {{if lt .Correlation -0.3}}negative{{else}}neutral{{end}}">r = {{fixed 2 .Correlation}}</div></div>
{{- end}}
</div>
</div>
{{- end}}
<div class="chart-section">
<h3>Évolution des rendements et de la température</h3>
<p class="chart-description">Les rendements baissent-ils les années les plus chaudes ?</p>
<form method="get" action="/filters">
<input type="hidden" name="crop" value="{{.Filter}}">
<select name="variable">{{range .Variables}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
<button type="submit">Afficher</button>
</form>
{{with .Timeline}}{{template "timeline" .}}{{end}}
<p><a href="/timeline.png">PNG</a> · <a href="/timeline.svg">SVG</a></p>
</div>
<div class="chart-section">
<h3>Corrélation température - rendement</h3>
<p class="chart-description">Chaque point = une année. La pente de la ligne montre l'impact de la chaleur.</p>
<form method="get" action="/filters">
<input type="hidden" name="variable" value="{{.Variable}}">
<select name="crop">{{range .Crops}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
<button type="submit">Filtrer</button>
</form>
{{with .Scatter}}{{template "scatter" .}}{{end}}
<p><a href="/scatter.png">PNG</a> · <a href="/scatter.svg">SVG</a></p>
{{- with .Summary}}
<div class="chart-insights">
<h4>Interprétation :</h4>
<ul>
{{- range .Crops}}
<li><strong>{{.Crop}}</strong> (r = {{fixed 2 .Correlation}}) : {{.Explanation}}</li>
{{- end}}
</ul>
</div>
{{- end}}
</div>
</div>
{{- end}}
</section>
{{- end}}
</main>
{{- end}}
</body>
</html>
{{- end}}
`
