package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agroviz"

// Metrics holds the Prometheus counters, histograms, and gauges for the explorer.
type Metrics struct {
	// Dataset load metrics.
	DatasetRows       *prometheus.GaugeVec     // labels: dataset={yields,trends,geometry}
	DatasetFetch      *prometheus.HistogramVec // labels: dataset
	LoadFailures      *prometheus.CounterVec   // labels: dataset
	LoadDuration      prometheus.Histogram
	JoinMisses        *prometheus.GaugeVec // labels: missing={trend,yields,both}
	DatasetsAvailable prometheus.Gauge

	// Interaction metrics.
	Renders          *prometheus.CounterVec   // labels: renderer={map,timeline,scatter}
	RenderDuration   *prometheus.HistogramVec // labels: renderer
	Selections       prometheus.Counter
	ActiveSessions   prometheus.Gauge
	SessionEvictions *prometheus.CounterVec // labels: reason={capacity,idle}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.DatasetRows,
		m.DatasetFetch,
		m.LoadFailures,
		m.LoadDuration,
		m.JoinMisses,
		m.DatasetsAvailable,
		m.Renders,
		m.RenderDuration,
		m.Selections,
		m.ActiveSessions,
		m.SessionEvictions,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		DatasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_rows",
			Help:      help("Rows loaded per dataset."),
		}, []string{"dataset"}),
		DatasetFetch: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_fetch_duration_seconds",
			Help:      help("Time to read and parse one dataset."),
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"dataset"}),
		LoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_load_failures_total",
			Help:      help("Dataset loads that failed, by dataset."),
		}, []string{"dataset"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      help("Duration of the joined load of all three datasets."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		JoinMisses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "join_misses",
			Help:      help("Geometry regions lacking tabular data, by what is missing."),
		}, []string{"missing"}),
		DatasetsAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "datasets_available",
			Help:      help("1 once the datasets are loaded and joined, 0 otherwise."),
		}),
		Renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      help("Scenes rendered, by renderer."),
		}, []string{"renderer"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      help("Scene render duration, by renderer."),
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}, []string{"renderer"}),
		Selections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      help("Region selections made by users."),
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      help("Interactive sessions held in memory."),
		}),
		SessionEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      help("Sessions dropped from the store, by reason."),
		}, []string{"reason"}),
	}
}
