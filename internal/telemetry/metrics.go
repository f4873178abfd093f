package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// FibMetrics makes PIC Core/PIC Edge convergence cost observable in
// production: an operator can confirm hardware-reprogramming calls stay
// O(1) regardless of how many routes share a failed path, rather than
// that property being provable only by a test.
type FibMetrics struct {
	halOps              *prometheus.CounterVec
	picConvergenceCalls *prometheus.CounterVec
	dependentWalkFanout prometheus.Histogram
	ecmpRedistributed   prometheus.Counter
}

// NewFibMetrics registers the core's counters against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with other
// registrations; pass prometheus.DefaultRegisterer in production.
func NewFibMetrics(reg prometheus.Registerer) *FibMetrics {
	factory := promauto.With(reg)
	return &FibMetrics{
		halOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "corefib_hal_ops_total",
			Help: "HAL calls issued by the orchestrator, by operation.",
		}, []string{"op"}),
		picConvergenceCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "corefib_pic_convergence_hal_calls_total",
			Help: "HAL calls issued directly by PIC Core/Edge reconvergence, by kind (ecmp, frr).",
		}, []string{"kind"}),
		dependentWalkFanout: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "corefib_dependent_walk_fanout",
			Help:    "Number of dependent nodes visited per dependent walk.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128, 256},
		}),
		ecmpRedistributed: factory.NewCounter(prometheus.CounterOpts{
			Name: "corefib_ecmp_members_redistributed_total",
			Help: "Member slots reassigned by resilient-hashing redistribution.",
		}),
	}
}

// ObserveHalOp records one HAL call of the given kind (e.g. "alloc_fec",
// "program_fec_simple", "set_active").
func (m *FibMetrics) ObserveHalOp(op string) {
	if m == nil {
		return
	}
	m.halOps.WithLabelValues(op).Inc()
}

// ObservePicConvergence records one direct hardware reprogram issued by
// PIC Core ("ecmp") or PIC Edge ("frr") reconvergence, independent of how
// many Routes depend on the group/pair that changed.
func (m *FibMetrics) ObservePicConvergence(kind string) {
	if m == nil {
		return
	}
	m.picConvergenceCalls.WithLabelValues(kind).Inc()
}

// ObserveDependentWalkFanout records how many dependents one dependent
// walk visited.
func (m *FibMetrics) ObserveDependentWalkFanout(n int) {
	if m == nil {
		return
	}
	m.dependentWalkFanout.Observe(float64(n))
}

// ObserveEcmpRedistribution records how many member slots a resilient-hash
// redistribution touched.
func (m *FibMetrics) ObserveEcmpRedistribution(n int) {
	if m == nil {
		return
	}
	m.ecmpRedistributed.Add(float64(n))
}
