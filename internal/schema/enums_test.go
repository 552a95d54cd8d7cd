package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyPriceSegmentBuckets(t *testing.T) {
	assert.Equal(t, PriceEntry, ClassifyPriceSegment(10))
	assert.Equal(t, PriceStandard, ClassifyPriceSegment(15))
	assert.Equal(t, PricePremium, ClassifyPriceSegment(30))
	assert.Equal(t, PriceLuxury, ClassifyPriceSegment(75))
}

func TestClassifyQualityLevelBuckets(t *testing.T) {
	assert.Equal(t, QualityExcellent, ClassifyQualityLevel(0.90))
	assert.Equal(t, QualityGood, ClassifyQualityLevel(0.75))
	assert.Equal(t, QualityAcceptable, ClassifyQualityLevel(0.60))
	assert.Equal(t, QualityPoor, ClassifyQualityLevel(0.59))
}

func TestClassifyFeedbackSentimentBuckets(t *testing.T) {
	assert.Equal(t, SentimentPositive, ClassifyFeedbackSentiment(5))
	assert.Equal(t, SentimentPositive, ClassifyFeedbackSentiment(4))
	assert.Equal(t, SentimentNeutral, ClassifyFeedbackSentiment(3))
	assert.Equal(t, SentimentNegative, ClassifyFeedbackSentiment(2))
	assert.Equal(t, SentimentNegative, ClassifyFeedbackSentiment(1))
}

func TestNormalizedEquivalentAppliesUnitMultiplier(t *testing.T) {
	assert.Equal(t, 3.0, NormalizedEquivalent(UnitBottle75cl, 3))
	assert.Equal(t, 6.0, NormalizedEquivalent(UnitMagnum150cl, 3))
	assert.Equal(t, 36.0, NormalizedEquivalent(UnitCase12, 3))
	assert.Equal(t, 3.0, NormalizedEquivalent(UnitOther, 3))
}

func TestScenarioPriorityOrdersRebuyFirstAndNurtureLast(t *testing.T) {
	assert.Less(t, ScenarioPriority[ScenarioRebuy], ScenarioPriority[ScenarioUpsell])
	assert.Less(t, ScenarioPriority[ScenarioUpsell], ScenarioPriority[ScenarioCrossSell])
	assert.Less(t, ScenarioPriority[ScenarioCrossSell], ScenarioPriority[ScenarioWinback])
	assert.Less(t, ScenarioPriority[ScenarioWinback], ScenarioPriority[ScenarioNurture])
}
