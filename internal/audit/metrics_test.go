package audit

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// NewMetrics registers gauges against the global default registerer, so
// every test run must share one instance.
func TestObserveQualityAndGatingSetGauges(t *testing.T) {
	m := NewMetrics()

	m.ObserveQuality(schema.QualityMetrics{
		Coverage:       0.5,
		Diversity:      0.6,
		DiversityRatio: 0.9,
		AccuracyProxy:  0.7,
		QualityScore:   0.65,
	})
	assert.Equal(t, 0.5, testutil.ToFloat64(m.coverage))
	assert.Equal(t, 0.6, testutil.ToFloat64(m.diversity))
	assert.Equal(t, 0.9, testutil.ToFloat64(m.diversityRatio))
	assert.Equal(t, 0.7, testutil.ToFloat64(m.accuracyProxy))
	assert.Equal(t, 0.65, testutil.ToFloat64(m.qualityScore))

	m.ObserveGating(BatchResult{PassRate: 0.8})
	assert.Equal(t, 0.8, testutil.ToFloat64(m.gatingPassRate))
}
