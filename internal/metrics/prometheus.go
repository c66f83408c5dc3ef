package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements Collector backed by Prometheus.
type PrometheusCollector struct {
	instancesCreated   *prometheus.CounterVec
	duplicates         prometheus.Counter
	choreFailures      *prometheus.CounterVec
	sweepDuration      prometheus.Histogram
	householdsSwept    prometheus.Counter
	lastSweepTimestamp prometheus.Gauge
}

var _ Collector = (*PrometheusCollector)(nil)

// NewPrometheus creates the collector and registers it with reg
// (prometheus.DefaultRegisterer when nil). namespace defaults to "chorewheel".
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "chorewheel"
	}

	p := &PrometheusCollector{
		instancesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "instances_created_total",
			Help:      "Chore instances persisted, by rotation pattern.",
		}, []string{"pattern"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "duplicates_absorbed_total",
			Help:      "Inserts rejected by the uniqueness constraint and treated as already generated.",
		}),
		choreFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "chore_failures_total",
			Help:      "Chores skipped during a household sweep, by reason.",
		}, []string{"reason"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "duration_seconds",
			Help:      "Duration of a full sweep over all households.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}),
		householdsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "households_total",
			Help:      "Households processed by sweeps.",
		}),
		lastSweepTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "last_completed_timestamp_seconds",
			Help:      "Unix time of the last completed sweep.",
		}),
	}

	reg.MustRegister(
		p.instancesCreated,
		p.duplicates,
		p.choreFailures,
		p.sweepDuration,
		p.householdsSwept,
		p.lastSweepTimestamp,
	)
	return p
}

func (p *PrometheusCollector) InstanceCreated(pattern string) {
	p.instancesCreated.WithLabelValues(pattern).Inc()
}

func (p *PrometheusCollector) DuplicateAbsorbed() {
	p.duplicates.Inc()
}

func (p *PrometheusCollector) ChoreFailed(reason string) {
	p.choreFailures.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) SweepCompleted(households int, seconds float64) {
	p.sweepDuration.Observe(seconds)
	p.householdsSwept.Add(float64(households))
	p.lastSweepTimestamp.SetToCurrentTime()
}
