package metrics

import (
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ethereum-optimism/infra/op-golden/types"
)

const (
	MetricsNamespace = "golden"
)

var (
	Debug        bool = true
	validResults      = []types.ComparisonKind{
		types.ComparisonNew,
		types.ComparisonUnchanged,
		types.ComparisonChanged,
		types.ComparisonMissing,
	}

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	comparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "comparisons_total",
		Help:      "Count of per-file comparison outcomes",
	}, []string{
		"run_id",
		"file",
		"result",
	})

	batchResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_results",
		Help:      "Result of the batch",
	}, []string{
		"run_id",
		"result",
	})

	batchTestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_test_total",
		Help:      "Total number of tests in the batch",
	}, []string{
		"run_id",
	})

	batchTestFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_test_failed",
		Help:      "Number of failed tests in the batch",
	}, []string{
		"run_id",
	})

	batchDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "batch_duration",
		Help:      "Wall-clock duration of the batch in seconds",
	}, []string{
		"run_id",
	})
)

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordComparison counts one file's comparison outcome.
func RecordComparison(runID string, file string, result types.ComparisonKind) {
	if !isValidResult(result) {
		log.Error("RecordComparison - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "comparisons_total",
			"run_id", runID,
			"file", file,
			"result", result)
	}
	comparisonsTotal.WithLabelValues(runID, file, string(result)).Inc()
}

// RecordBatch records the batch-level result.
func RecordBatch(runID string, result string, total int, failed int, duration time.Duration) {
	batchResults.WithLabelValues(runID, result).Set(1)
	batchTestTotal.WithLabelValues(runID).Add(float64(total))
	batchTestFailed.WithLabelValues(runID).Add(float64(failed))
	batchDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result types.ComparisonKind) bool {
	return slices.Contains(validResults, result)
}
