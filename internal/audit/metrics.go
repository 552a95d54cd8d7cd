package audit

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// Metrics exposes the run-level quality snapshot as Prometheus gauges, per
// SPEC_FULL.md section 6's monitoring surface.
type Metrics struct {
	mu             sync.Mutex
	coverage       prometheus.Gauge
	diversity      prometheus.Gauge
	diversityRatio prometheus.Gauge
	accuracyProxy  prometheus.Gauge
	qualityScore   prometheus.Gauge
	gatingPassRate prometheus.Gauge
}

// NewMetrics registers the quality gauges against the default registerer.
func NewMetrics() *Metrics {
	return &Metrics{
		coverage: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_reco",
			Subsystem: "quality",
			Name:      "coverage_ratio",
			Help:      "Most recent run's coverage ratio.",
		}),
		diversity: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_reco",
			Subsystem: "quality",
			Name:      "diversity",
			Help:      "Most recent run's diversity score (unique products over recommendation volume).",
		}),
		diversityRatio: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_reco",
			Subsystem: "quality",
			Name:      "diversity_ratio",
			Help:      "Most recent run's mean per-customer diversity ratio.",
		}),
		accuracyProxy: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_reco",
			Subsystem: "quality",
			Name:      "accuracy_proxy",
			Help:      "Most recent run's accuracy proxy (mean final score / 100).",
		}),
		qualityScore: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_reco",
			Subsystem: "quality",
			Name:      "score",
			Help:      "Most recent run's weighted quality score.",
		}),
		gatingPassRate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "crm_reco",
			Subsystem: "gating",
			Name:      "pass_rate",
			Help:      "Most recent batch gating pass rate.",
		}),
	}
}

// ObserveQuality publishes one QualityMetrics snapshot.
func (m *Metrics) ObserveQuality(q schema.QualityMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coverage.Set(q.Coverage)
	m.diversity.Set(q.Diversity)
	m.diversityRatio.Set(q.DiversityRatio)
	m.accuracyProxy.Set(q.AccuracyProxy)
	m.qualityScore.Set(q.QualityScore)
}

// ObserveGating publishes one batch gating pass rate.
func (m *Metrics) ObserveGating(result BatchResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gatingPassRate.Set(result.PassRate)
}
