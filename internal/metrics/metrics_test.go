package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMergeRequestsTotal_Labels(t *testing.T) {
	MergeRequestsTotal.WithLabelValues("ghostscript", "success").Inc()
	MergeRequestsTotal.WithLabelValues("ghostscript", "success").Inc()
	MergeRequestsTotal.WithLabelValues("none", "error").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(MergeRequestsTotal.WithLabelValues("ghostscript", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(MergeRequestsTotal.WithLabelValues("none", "error")))
}

func TestActiveMerges_GaugeRoundTrip(t *testing.T) {
	ActiveMerges.Inc()
	ActiveMerges.Inc()
	ActiveMerges.Dec()

	assert.Equal(t, float64(1), testutil.ToFloat64(ActiveMerges))
	ActiveMerges.Dec()
}

func TestCircuitBreakerState_Gauge(t *testing.T) {
	CircuitBreakerState.WithLabelValues("ghostscript").Set(2)
	assert.Equal(t, float64(2), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("ghostscript")))

	CircuitBreakerState.WithLabelValues("ghostscript").Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(CircuitBreakerState.WithLabelValues("ghostscript")))
}
