package aggregator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	m.MessagesReceived.Inc()
	m.MessagesReceived.Inc()
	m.DecodeFailures.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.MessagesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeFailures))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ReportsWritten))
}

func TestNewMetricsIndependentRegistries(t *testing.T) {
	// Each Metrics value owns a registry, so constructing a second one
	// must not panic with duplicate registration.
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}
