package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"text/tabwriter"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/couchcryptid/agro-climate-viz/internal/adapter/chart"
	"github.com/couchcryptid/agro-climate-viz/internal/adapter/svg"
	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/observability"
	"github.com/couchcryptid/agro-climate-viz/internal/pipeline"
	"github.com/couchcryptid/agro-climate-viz/internal/render"
	"github.com/couchcryptid/agro-climate-viz/internal/session"
	"github.com/couchcryptid/agro-climate-viz/internal/stats"
)

// processMetrics registers with the default registry once per process.
var processMetrics = sync.OnceValue(observability.NewMetrics)

func load(ctx context.Context, v *viper.Viper, logger *slog.Logger, metrics *observability.Metrics) (*domain.RecordStore, error) {
	source := pipeline.NewSource(v.GetString("data"), v.GetDuration("timeout"), logger)
	loader := pipeline.NewLoader(source, pipeline.Files{
		Yields:   v.GetString("yields"),
		Trends:   v.GetString("trends"),
		Geometry: v.GetString("geometry"),
	}, logger, metrics)
	records, err := loader.Load(ctx)
	if err != nil {
		return nil, errors.New(domain.UserMessage(err))
	}
	return records, nil
}

func runRender(cmd *cobra.Command, _ []string) error {
	v, err := settings(cmd)
	if err != nil {
		return err
	}
	logger := sharedobs.NewLogger(v.GetString("log-level"), "text")

	var export chart.Format
	if e := v.GetString("export"); e != "none" {
		var ok bool
		if export, ok = chart.ParseFormat(e); !ok {
			return fmt.Errorf("invalid --export %q: must be png, svg or none", e)
		}
	}
	variable, ok := domain.ParseClimateVariable(v.GetString("variable"))
	if !ok {
		return fmt.Errorf("invalid --variable %q", v.GetString("variable"))
	}

	records, err := load(cmd.Context(), v, logger, processMetrics())
	if err != nil {
		return err
	}

	s := session.New("render", records, logger, processMetrics())
	if region := v.GetString("region"); region != "" {
		if !s.Click(region) {
			return fmt.Errorf("region %q is not on the map; see the regions command", region)
		}
	}
	s.SetCropFilter(render.ParseCropFilter(v.GetString("crop")))
	s.SetClimateVariable(variable)

	f, err := s.Render()
	if err != nil {
		return err
	}

	out := v.GetString("out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	w := &fileWriter{dir: out, stdout: cmd.OutOrStdout()}

	w.write("map.svg", func(b io.Writer) error { return svg.Map(b, f.Map, false) })
	if f.Selected == "" {
		return w.err
	}

	w.write("timeline.svg", func(b io.Writer) error { return svg.Timeline(b, f.Timeline) })
	w.write("scatter.svg", func(b io.Writer) error { return svg.Scatter(b, f.Scatter) })
	if f.NoData {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", f.Selected, f.Message)
		return w.err
	}
	if export != "" {
		suffix := "." + string(export)
		if export == chart.SVG {
			suffix = ".chart.svg"
		}
		w.write("timeline"+suffix, func(b io.Writer) error { return chart.Timeline(b, f.Timeline, export) })
		w.write("scatter"+suffix, func(b io.Writer) error { return chart.Scatter(b, f.Scatter, export) })
	}
	w.write("summary.json", func(b io.Writer) error {
		enc := json.NewEncoder(b)
		enc.SetIndent("", "  ")
		return enc.Encode(f.Summary)
	})
	return w.err
}

// fileWriter writes files into dir and keeps the first error.
type fileWriter struct {
	dir    string
	stdout io.Writer
	err    error
}

func (w *fileWriter) write(name string, fn func(io.Writer) error) {
	if w.err != nil {
		return
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		w.err = fmt.Errorf("%s: %w", name, err)
		return
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		w.err = fmt.Errorf("write %s: %w", path, err)
		return
	}
	fmt.Fprintln(w.stdout, path)
}

func runRegions(cmd *cobra.Command, _ []string) error {
	v, err := settings(cmd)
	if err != nil {
		return err
	}
	logger := sharedobs.NewLogger(v.GetString("log-level"), "text")

	records, err := load(cmd.Context(), v, logger, processMetrics())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REGION\tTREND\tYIELD ROWS\tMEAN TEMP ANOMALY")
	for _, j := range records.JoinReport() {
		trend := "-"
		if t, ok := records.Trend(j.Region); ok {
			trend = fmt.Sprintf("%.2f°C", t.TotalWarming)
		}
		mean := "-"
		if j.HasYields {
			mean = fmt.Sprintf("%.2f°C", stats.Summarize(j.Region, records.YieldsForRegion(j.Region)).MeanTempAnomaly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", j.Region, trend, j.YieldRows, mean)
	}
	for _, name := range records.OrphanRegions() {
		fmt.Fprintf(tw, "%s\t(no geometry)\t%d\t-\n", name, len(records.YieldsForRegion(name)))
	}
	return tw.Flush()
}
