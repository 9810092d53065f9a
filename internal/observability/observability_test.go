package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsForTesting_Registerable(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.Renders))
	require.NoError(t, reg.Register(m.DatasetRows))

	m.Renders.WithLabelValues("map").Inc()
	m.DatasetRows.WithLabelValues("yields").Set(12)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Renders.WithLabelValues("map")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.DatasetRows.WithLabelValues("yields")))
}
