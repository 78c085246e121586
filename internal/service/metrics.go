package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "runlog"

var (
	importsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "import",
		Name:      "files_total",
		Help:      "Activity files processed, by format and result.",
	}, []string{"format", "result"})

	importDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "import",
		Name:      "duration_seconds",
		Help:      "Time spent importing one activity file.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	trackpointsImported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "import",
		Name:      "trackpoints_total",
		Help:      "Trackpoints stored by successful imports.",
	})

	analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "analysis",
		Name:      "duration_seconds",
		Help:      "Time spent building one workout report.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	analysisFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "analysis",
		Name:      "failures_total",
		Help:      "Workouts whose report could not be built.",
	})

	recordsSet = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "records",
		Name:      "set_total",
		Help:      "All-time records improved, by category.",
	}, []string{"category"})
)

func init() {
	prometheus.MustRegister(
		importsTotal,
		importDuration,
		trackpointsImported,
		analysisDuration,
		analysisFailures,
		recordsSet,
	)
}
