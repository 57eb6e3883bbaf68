// Package metrics provides Prometheus metrics for the backtest engine.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics collects and exposes engine-related Prometheus metrics.
// The recovery counters matter most: out-of-range grid cells and padded
// bets are recovered locally during evaluation, but each one signals a
// data or mapping inconsistency upstream and must stay visible.
type EngineMetrics struct {
	registry *prometheus.Registry

	// Data metrics
	RoundsLoaded   *prometheus.CounterVec
	RoundsExcluded *prometheus.CounterVec

	// Generation metrics
	BetsGenerated  *prometheus.CounterVec
	BetsPadded     prometheus.Counter
	SampleAttempts prometheus.Histogram

	// Evaluation metrics
	RoundsEvaluated prometheus.Counter
	CellRecoveries  prometheus.Counter
	CorrectLines    prometheus.Histogram
	RoundProfit     prometheus.Histogram
}

// NewEngineMetrics creates a new engine metrics collector.
func NewEngineMetrics() *EngineMetrics {
	registry := prometheus.NewRegistry()

	em := &EngineMetrics{
		registry: registry,

		RoundsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridbet_rounds_loaded_total",
				Help: "Total number of round files loaded",
			},
			[]string{"finalized"},
		),
		RoundsExcluded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridbet_rounds_excluded_total",
				Help: "Rounds excluded from backtesting",
			},
			[]string{"reason"},
		),

		BetsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gridbet_bets_generated_total",
				Help: "Bets emitted by the generator",
			},
			[]string{"source"},
		),
		BetsPadded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gridbet_bets_padded_total",
				Help: "Bets padded with the favorite after the dedup retry budget ran out",
			},
		),
		SampleAttempts: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridbet_sample_attempts_per_round",
				Help:    "Sampling attempts needed to fill one round's bet count",
				Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10 to ~5k
			},
		),

		RoundsEvaluated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gridbet_rounds_evaluated_total",
				Help: "Rounds scored by the accuracy evaluator",
			},
		),
		CellRecoveries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gridbet_cell_recoveries_total",
				Help: "Grid cells scored with a neutral multiplier because the mapped match index had no market",
			},
		),
		CorrectLines: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridbet_correct_lines_per_bet",
				Help:    "Correct lines per evaluated bet (0-27)",
				Buckets: prometheus.LinearBuckets(0, 3, 10), // 0, 3, ..., 27
			},
		),
		RoundProfit: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "gridbet_round_profit_units",
				Help:    "Per-round profit in stake units",
				Buckets: []float64{-2700, -1350, -500, -100, 0, 100, 500, 1350, 2700, 10000},
			},
		),
	}

	em.registerAll()

	return em
}

func (em *EngineMetrics) registerAll() {
	em.registry.MustRegister(
		em.RoundsLoaded,
		em.RoundsExcluded,
		em.BetsGenerated,
		em.BetsPadded,
		em.SampleAttempts,
		em.RoundsEvaluated,
		em.CellRecoveries,
		em.CorrectLines,
		em.RoundProfit,
	)
}

// Registry returns the prometheus registry.
func (em *EngineMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// --- Helper methods for recording metrics ---

// RecordRoundLoaded records a loaded round.
func (em *EngineMetrics) RecordRoundLoaded(finalized bool) {
	if finalized {
		em.RoundsLoaded.WithLabelValues("yes").Inc()
	} else {
		em.RoundsLoaded.WithLabelValues("no").Inc()
	}
}

// RecordRoundExcluded records a round dropped from the backtest.
func (em *EngineMetrics) RecordRoundExcluded(reason string) {
	em.RoundsExcluded.WithLabelValues(reason).Inc()
}

// RecordGeneration records one round's bet generation outcome.
func (em *EngineMetrics) RecordGeneration(source string, bets, padded, attempts int) {
	em.BetsGenerated.WithLabelValues(source).Add(float64(bets))
	if padded > 0 {
		em.BetsPadded.Add(float64(padded))
	}
	em.SampleAttempts.Observe(float64(attempts))
}

// RecordEvaluation records one round's scoring outcome.
func (em *EngineMetrics) RecordEvaluation(cellRecoveries int, profitUnits float64) {
	em.RoundsEvaluated.Inc()
	if cellRecoveries > 0 {
		em.CellRecoveries.Add(float64(cellRecoveries))
	}
	em.RoundProfit.Observe(profitUnits)
}

// RecordBetLines records the correct-line count of one evaluated bet.
func (em *EngineMetrics) RecordBetLines(correctLines int) {
	em.CorrectLines.Observe(float64(correctLines))
}

// Global instance for convenience
var defaultMetrics *EngineMetrics
var once sync.Once

// Default returns the default global metrics instance.
func Default() *EngineMetrics {
	once.Do(func() {
		defaultMetrics = NewEngineMetrics()
	})
	return defaultMetrics
}
