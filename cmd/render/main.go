// Command render loads the datasets once and writes the map, and optionally
// one region's timeline and scatter plot, to files.
//
// Usage:
//
//	go run ./cmd/render --data public --region Bretagne --out out
//	go run ./cmd/render regions --data https://example.org/agro
//
// Every flag can also be set from the environment with the AGROVIZ_ prefix
// (AGROVIZ_DATA, AGROVIZ_REGION, ...) or from a YAML file given with --config
// or AGROVIZ_CONFIG.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "render",
		Short: "Render the agro-climate charts to SVG and PNG files",
		Long: `render loads the yield, climate trend and region geometry datasets and writes
map.svg, plus timeline and scatter charts for the region given with --region.`,
		SilenceUsage: true,
		RunE:         runRender,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "YAML config file")
	pf.String("data", "public", "dataset base path: a directory or an http(s) URL")
	pf.String("yields", "data/data_final_avec_anomalies.csv", "yield file, relative to --data")
	pf.String("trends", "data/tendances_climatiques_region.csv", "climate trend file, relative to --data")
	pf.String("geometry", "data/regions.geojson", "region geometry file, relative to --data")
	pf.Duration("timeout", 10*time.Second, "fetch timeout for http(s) data")
	pf.String("log-level", "warn", "debug, info, warn or error")

	f := root.Flags()
	f.String("region", "", "region to render the detail charts for")
	f.String("crop", "Toutes", "scatter plot crop filter")
	f.String("variable", "temperature", "timeline climate variable: temperature or precipitation")
	f.String("out", "out", "output directory")
	f.String("export", "png", "go-chart export of the detail charts: png, svg or none")

	root.AddCommand(&cobra.Command{
		Use:          "regions",
		Short:        "List map regions and how they join with the tabular data",
		SilenceUsage: true,
		RunE:         runRegions,
	})
	return root
}

// settings merges flags, AGROVIZ_* variables and the config file.
func settings(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("AGROVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}
	return v, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
