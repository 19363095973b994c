package failover

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the failover metrics. The CLI writes it to a textfile after
// each run.
var Registry = prometheus.NewRegistry()

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hafloat",
			Subsystem: "failover",
			Name:      "operations_total",
			Help:      "Total number of submitted operations by class, action and result",
		},
		[]string{"class", "action", "result"},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hafloat",
			Subsystem: "failover",
			Name:      "phase_duration_seconds",
			Help:      "Duration of a submission phase including confirmation",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
		},
		[]string{"class", "phase"},
	)

	discoveredOperations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hafloat",
			Subsystem: "failover",
			Name:      "discovered_operations",
			Help:      "Number of operations produced by the last discovery",
		},
		[]string{"class"},
	)
)

func init() {
	Registry.MustRegister(
		operationsTotal,
		phaseDuration,
		discoveredOperations,
	)
}

func recordOperationMetric(class, action string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(class, action, result).Inc()
}

func recordPhaseMetric(class, phase string, seconds float64) {
	phaseDuration.WithLabelValues(class, phase).Observe(seconds)
}

func recordDiscoveryMetric(set *OperationSet) {
	discoveredOperations.WithLabelValues(classInterfaces).Set(float64(len(set.Interfaces.Disassociate) + len(set.Interfaces.Associate)))
	discoveredOperations.WithLabelValues(classRoutes).Set(float64(len(set.Routes)))
	discoveredOperations.WithLabelValues(classForwardingRules).Set(float64(len(set.ForwardingRules)))
}

func (p *Planner) recordOperation(class, action string, err error) {
	if p.enableMetrics {
		recordOperationMetric(class, action, err)
	}
}

func (p *Planner) recordPhase(class, phase string, seconds float64) {
	if p.enableMetrics {
		recordPhaseMetric(class, phase, seconds)
	}
}

func (p *Planner) recordDiscovery(set *OperationSet) {
	if p.enableMetrics {
		recordDiscoveryMetric(set)
	}
}
