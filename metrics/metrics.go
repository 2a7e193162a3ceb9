package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "specrun"
)

var (
	Debug                bool = true
	validResults              = []string{"pass", "fail", "cancelled"}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	runEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_events_total",
		Help:      "Count of run events relayed from the test runner",
	}, []string{
		"run_id",
		"result",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Terminal result of orchestrated runs",
	}, []string{
		"run_id",
		"result",
	})

	specFilesSelected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "spec_files_selected",
		Help:      "Number of spec files the selector resolved to",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration",
		Help:      "Duration of orchestrated runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordRunEvent counts one success or failure callback from the runner.
func RecordRunEvent(runID string, result string) {
	if !isValidResult(result) {
		log.Error("RecordRunEvent - invalid result", "result", result)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "run_events_total",
			"run_id", runID,
			"result", result)
	}
	runEventsTotal.WithLabelValues(runID, result).Inc()
}

// RecordRun records the terminal outcome of one orchestrated run.
func RecordRun(runID string, result string, specCount int, duration time.Duration) {
	runResults.WithLabelValues(runID, result).Set(1)
	specFilesSelected.WithLabelValues(runID).Set(float64(specCount))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidResult(result string) bool {
	return slices.Contains(validResults, result)
}
