package svg

const sceneTemplates = `
{{- define "line"}}<line x1="{{num .From.X}}" y1="{{num .From.Y}}" x2="{{num .To.X}}" y2="{{num .To.Y}}" stroke="{{hex .Color}}" stroke-width="{{num .Width}}" stroke-dasharray="{{dash .Dash}}" opacity="{{num .Opacity}}"/>{{end}}

{{- define "axis"}}
<g class="axis" font-size="11" fill="{{hex .Color}}">
<line x1="{{num .X1}}" y1="{{num .Y1}}" x2="{{num .X2}}" y2="{{num .Y2}}" stroke="{{hex .Color}}"/>
{{- range .Ticks}}
<line x1="{{num .X1}}" y1="{{num .Y1}}" x2="{{num .X2}}" y2="{{num .Y2}}" stroke="{{hex $.Color}}"/>
<text x="{{num .TX}}" y="{{num .TY}}" text-anchor="{{.Anchor}}">{{.Label}}</text>
{{- end}}
<text class="axis-title" x="{{num .TitleX}}" y="{{num .TitleY}}" text-anchor="middle" font-size="12" transform="rotate({{num .Rotate}} {{num .TitleX}} {{num .TitleY}})">{{.Title}}</text>
</g>
{{- end}}

{{- define "nodata"}}
<text class="no-data" x="{{num (half .Width)}}" y="{{num (half .Height)}}" text-anchor="middle" font-size="14" fill="#666666">{{.Message}}</text>
{{- end}}

{{- define "map"}}<svg xmlns="http://www.w3.org/2000/svg" class="map" width="{{num .Width}}" height="{{num .Height}}" viewBox="0 0 {{num .Width}} {{num .Height}}" font-family="sans-serif">
<style>.region path{cursor:pointer}.region:hover path{opacity:1}</style>
<defs><linearGradient id="warming-gradient" x1="0%" x2="100%"><stop offset="0%" stop-color="{{hex .Legend.From}}"/><stop offset="100%" stop-color="{{hex .Legend.To}}"/></linearGradient></defs>
<rect width="{{num .Width}}" height="{{num .Height}}" fill="{{hex .Background}}"/>
<g class="regions">
{{- range .Regions}}
{{if $.Links}}<a class="region" href="/select?region={{.Name}}">{{else}}<g class="region">{{end}}<path d="{{.Path}}" fill="{{hex .Fill}}" stroke="{{hex .Stroke}}" stroke-width="{{num .StrokeWidth}}" opacity="{{num .Opacity}}">{{with tip .Tooltip}}<title>{{.}}</title>{{end}}</path>{{if $.Links}}</a>{{else}}</g>{{end}}
{{- end}}
</g>
<g class="labels" pointer-events="none" text-anchor="middle">
{{- range .Regions}}
<text x="{{num .Centroid.X}}" y="{{num .Centroid.Y}}" font-size="11" font-weight="bold" fill="#2c3e50">{{.Name}}</text>
{{- if .ValueLabel}}{{$p := .ValueLabelPos}}
<text x="{{num $p.X}}" y="{{num $p.Y}}" font-size="10" fill="#c0392b">{{.ValueLabel}}</text>{{end}}
{{- end}}
</g>
<g class="legend" transform="translate({{num .Legend.X}},{{num .Legend.Y}})">
<text y="-6" font-size="12" font-weight="bold">{{.Legend.Title}}</text>
<rect width="{{num .Legend.Width}}" height="{{num .Legend.Height}}" fill="url(#warming-gradient)" stroke="#333333" stroke-width="0.5"/>
<text y="{{num (add .Legend.Height 14)}}" font-size="11">{{.Legend.MinLabel}}</text>
<text x="{{num .Legend.Width}}" y="{{num (add .Legend.Height 14)}}" font-size="11" text-anchor="end">{{.Legend.MaxLabel}}</text>
</g>
{{- if .OverlayID}}
<g id="{{.OverlayID}}" class="tooltip-layer" pointer-events="none"></g>
{{- end}}
</svg>
{{- end}}

{{- define "timeline"}}<svg xmlns="http://www.w3.org/2000/svg" class="timeline" width="{{num .Width}}" height="{{num .Height}}" viewBox="0 0 {{num .Width}} {{num .Height}}" font-family="sans-serif">
{{- if .NoData}}{{template "nodata" .}}{{else}}
{{template "axis" .X}}{{template "axis" .Left}}{{template "axis" .Right}}
{{template "line" .ZeroLine}}
{{- range $s := .Series}}
<g class="series" data-name="{{$s.Name}}">
<polyline points="{{points $s.Points}}" fill="none" stroke="{{hex $s.Color}}" stroke-width="{{num $s.Width}}" stroke-dasharray="{{dash $s.Dash}}"/>
{{- if $s.Dots}}{{range $s.Points}}
<circle cx="{{num .At.X}}" cy="{{num .At.Y}}" r="4" fill="{{hex $s.Color}}">{{with tip .Tooltip}}<title>{{.}}</title>{{end}}</circle>
{{- end}}{{end}}
</g>
{{- end}}
<g class="legend" font-size="11" transform="translate({{num .LegendX}},{{num .LegendY}})">
{{- range $i, $item := .Legend}}
<g transform="translate({{num (row $i 130 0)}},0)"><line x1="0" y1="0" x2="20" y2="0" stroke="{{hex $item.Color}}" stroke-width="2" stroke-dasharray="{{dash $item.Dash}}"/><text x="25" y="4">{{$item.Label}}</text></g>
{{- end}}
</g>
{{- if .OverlayID}}
<g id="{{.OverlayID}}" class="tooltip-layer" pointer-events="none"></g>
{{- end}}
{{- end}}
</svg>
{{- end}}

{{- define "scatter"}}<svg xmlns="http://www.w3.org/2000/svg" class="scatter" width="{{num .Width}}" height="{{num .Height}}" viewBox="0 0 {{num .Width}} {{num .Height}}" font-family="sans-serif">
{{- if .NoData}}{{template "nodata" .}}{{else}}
<text class="title" x="{{num (half .Width)}}" y="22" text-anchor="middle" font-size="14" font-weight="bold">{{.Title}}</text>
{{template "axis" .X}}{{template "axis" .Y}}
{{- range .References}}
{{template "line" .}}
{{- end}}
{{- range .Regressions}}
<g class="regression" data-crop="{{.Crop}}">{{template "line" .Line}}</g>
{{- end}}
<g class="points">
{{- range .Points}}
<circle cx="{{num .At.X}}" cy="{{num .At.Y}}" r="{{num .Radius}}" fill="{{hex .Color}}" opacity="{{num .Opacity}}" stroke="#ffffff" stroke-width="1">{{with tip .Tooltip}}<title>{{.}}</title>{{end}}</circle>
{{- end}}
</g>
<g class="legend" font-size="11" transform="translate({{num .LegendX}},{{num .LegendY}})">
<text y="0" font-size="12" font-weight="bold">{{.LegendTitle}}</text>
{{- range $i, $item := .Legend}}
<g transform="translate(0,{{num (row $i 85 20)}})">
<circle cx="6" cy="0" r="6" fill="{{hex $item.Color}}"/>
<text x="18" y="4" font-weight="bold">{{$item.Label}}</text>
{{- range $j, $line := $item.Lines}}
<text x="18" y="{{num (row $j 14 20)}}" font-size="10" fill="#555555">{{$line}}</text>
{{- end}}
</g>
{{- end}}
</g>
{{- if .OverlayID}}
<g id="{{.OverlayID}}" class="tooltip-layer" pointer-events="none"></g>
{{- end}}
{{- end}}
</svg>
{{- end}}
`
