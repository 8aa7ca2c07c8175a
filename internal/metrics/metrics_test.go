package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)

	// Repeated initialization returns the same registry.
	assert.Same(t, registry, InitRegistry())
}

func TestRecordRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordRun("historical", "success", 0.42)
		RecordRun("walk_forward", "failure", 1.2)
	})
}

func TestRecorders(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordTrades(12)
		RecordCircuitBreakerTrip()
		RecordMonteCarloSimulations(1000)
		RecordRebalance("scheduled")
		RecordRebalance("threshold")
		UpdateFinalEquity("ACME", 112_345.67)
		UpdateRobustnessScore("ACME", 87.5)
	})
}

func TestHandler(t *testing.T) {
	InitRegistry()
	assert.NotNil(t, Handler())
}
