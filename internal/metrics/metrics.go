// Package metrics provides the centralized Prometheus metrics registry
// for the simulation tool.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "runs_total",
		Help:      "Total number of simulation runs by method and status",
	}, []string{"method", "status"})
	TradesSimulatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "trades_simulated_total",
		Help:      "Total number of simulated round-trip trades",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of max-drawdown circuit breaker trips",
	})
	MonteCarloSimulationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "monte_carlo_simulations_total",
		Help:      "Total number of Monte Carlo iterations executed",
	})
	RebalanceEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tradesim",
		Name:      "rebalance_events_total",
		Help:      "Total number of portfolio rebalance events by reason",
	}, []string{"reason"})
)

// Gauge metrics
var (
	FinalEquity = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "final_equity",
		Help:      "Final equity of the most recent run per symbol",
	}, []string{"symbol"})
	RobustnessScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "tradesim",
		Name:      "walk_forward_robustness_score",
		Help:      "Aggregate walk-forward robustness score per symbol",
	}, []string{"symbol"})
)

// Histogram metrics
var (
	RunDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tradesim",
		Name:      "run_duration_seconds",
		Help:      "Duration of simulation runs in seconds by method",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"method"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(RunsTotal)
		registry.MustRegister(TradesSimulatedTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(MonteCarloSimulationsTotal)
		registry.MustRegister(RebalanceEventsTotal)

		registry.MustRegister(FinalEquity)
		registry.MustRegister(RobustnessScore)

		registry.MustRegister(RunDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordRun records a simulation run event.
// method should be one of: "historical", "walk_forward", "monte_carlo", "portfolio"
// status should be one of: "success", "failure"
func RecordRun(method, status string, durationSeconds float64) {
	RunsTotal.WithLabelValues(method, status).Inc()
	RunDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordTrades adds to the simulated trade count.
func RecordTrades(count int) {
	TradesSimulatedTotal.Add(float64(count))
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordMonteCarloSimulations adds to the Monte Carlo iteration count.
func RecordMonteCarloSimulations(count int) {
	MonteCarloSimulationsTotal.Add(float64(count))
}

// RecordRebalance records a portfolio rebalance event.
func RecordRebalance(reason string) {
	RebalanceEventsTotal.WithLabelValues(reason).Inc()
}

// UpdateFinalEquity updates the per-symbol final equity gauge.
func UpdateFinalEquity(symbol string, equity float64) {
	FinalEquity.WithLabelValues(symbol).Set(equity)
}

// UpdateRobustnessScore updates the per-symbol robustness gauge.
func UpdateRobustnessScore(symbol string, score float64) {
	RobustnessScore.WithLabelValues(symbol).Set(score)
}
