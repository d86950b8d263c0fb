package metrics

import (
	"time"

	"github.com/assemblage/backend/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Detection metrics
	DetectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assemblage_detect_duration_seconds",
			Help:    "Duration of community detection runs",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"outcome"},
	)

	CommunitiesReported = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assemblage_communities_reported",
		Help:    "Number of communities reported per detection run",
		Buckets: prometheus.LinearBuckets(0, 1, 11),
	})

	DetectErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assemblage_detect_errors_total",
			Help: "Total number of failed detection runs",
		},
		[]string{"kind"},
	)

	// Reconciliation metrics
	ReconciledEdges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assemblage_reconciled_edges_total",
			Help: "Total number of edges emitted by link reconciliation",
		},
		[]string{"provenance"},
	)
)

// Detect outcomes.
const (
	OutcomeOK    = "ok"
	OutcomeEmpty = "empty"
	OutcomeError = "error"
)

// ObserveDetect records one detection run. communities is ignored when err
// is set.
func ObserveDetect(start time.Time, communities int, empty bool, err error) {
	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
		DetectErrors.WithLabelValues(common.ErrorKind(err)).Inc()
	case empty:
		outcome = OutcomeEmpty
	}
	DetectDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err == nil {
		CommunitiesReported.Observe(float64(communities))
	}
}

// ObserveReconcile counts merged edges by provenance.
func ObserveReconcile(edges []common.Edge) {
	for _, e := range edges {
		p := string(e.Provenance)
		if p == "" {
			p = string(common.ProvenanceHeuristic)
		}
		ReconciledEdges.WithLabelValues(p).Inc()
	}
}
