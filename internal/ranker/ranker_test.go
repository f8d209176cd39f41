package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantis/leafscan/internal/labels"
)

func testCatalog(t *testing.T) *labels.Catalog {
	t.Helper()
	cat, err := labels.Parse("Apple___healthy\nApple___rust\nTomato___Early_blight")
	require.NoError(t, err)
	return cat
}

func TestRank_Descending(t *testing.T) {
	ranking := Rank([]float32{0.1, 0.7, 0.2})
	require.Len(t, ranking, 3)
	assert.Equal(t, 1, ranking[0].Index)
	assert.Equal(t, 2, ranking[1].Index)
	assert.Equal(t, 0, ranking[2].Index)
}

func TestRank_TieBreakIndexAscending(t *testing.T) {
	ranking := Rank([]float32{0.2, 0.9, 0.9, 0.1})
	require.Len(t, ranking, 4)
	assert.Equal(t, Prediction{Index: 1, Probability: 0.9}, ranking[0])
	assert.Equal(t, Prediction{Index: 2, Probability: 0.9}, ranking[1])
	assert.Equal(t, Prediction{Index: 0, Probability: 0.2}, ranking[2])
	assert.Equal(t, Prediction{Index: 3, Probability: 0.1}, ranking[3])
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}

func TestDecide_Accepted(t *testing.T) {
	d := Decide(Rank([]float32{0.1, 0.85, 0.05}), testCatalog(t), 0.7)
	assert.Equal(t, OutcomeAccepted, d.Outcome)
	assert.Equal(t, "Apple", d.Species)
	assert.Equal(t, "rust", d.Status)
	assert.InDelta(t, 0.85, d.Confidence, 1e-6)
}

func TestDecide_ThresholdInclusive(t *testing.T) {
	d := Decide([]Prediction{{Index: 0, Probability: 0.7}}, testCatalog(t), 0.7)
	assert.Equal(t, OutcomeAccepted, d.Outcome)

	d = Decide([]Prediction{{Index: 0, Probability: 0.6999}}, testCatalog(t), 0.7)
	assert.Equal(t, OutcomeLowConfidence, d.Outcome)
	assert.InDelta(t, 0.6999, d.Confidence, 1e-4)
}

func TestDecide_EmptyRanking(t *testing.T) {
	d := Decide(nil, testCatalog(t), 0.7)
	assert.Equal(t, OutcomeNoPrediction, d.Outcome)
	assert.Zero(t, d.Confidence)
}

func TestDecide_ConfidenceGateBeforeIndexValidity(t *testing.T) {
	// Out-of-range index below threshold reports low confidence, not skew.
	d := Decide([]Prediction{{Index: 99, Probability: 0.3}}, testCatalog(t), 0.7)
	assert.Equal(t, OutcomeLowConfidence, d.Outcome)
}

func TestDecide_IndexOutOfRange(t *testing.T) {
	d := Decide([]Prediction{{Index: 99, Probability: 0.95}}, testCatalog(t), 0.7)
	assert.Equal(t, OutcomeIndexOutOfRange, d.Outcome)
	assert.InDelta(t, 0.95, d.Confidence, 1e-6)
	assert.Empty(t, d.Species)
}

func TestDecide_TieGatedByThreshold(t *testing.T) {
	// Equal probabilities pick index 0, but the gate still applies.
	d := Decide(Rank([]float32{0.5, 0.5}), testCatalog(t), 0.7)
	assert.Equal(t, OutcomeLowConfidence, d.Outcome)
	assert.InDelta(t, 0.5, d.Confidence, 1e-6)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "accepted", OutcomeAccepted.String())
	assert.Equal(t, "low_confidence", OutcomeLowConfidence.String())
	assert.Equal(t, "no_prediction", OutcomeNoPrediction.String())
	assert.Equal(t, "index_out_of_range", OutcomeIndexOutOfRange.String())
}
