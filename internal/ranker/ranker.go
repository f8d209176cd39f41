// Package ranker turns a raw classifier probability vector into a
// deterministic ranking and a single diagnosis decision.
package ranker

import (
	"fmt"
	"sort"

	"github.com/verdantis/leafscan/internal/labels"
)

// Prediction pairs a label index with its probability.
type Prediction struct {
	Index       int
	Probability float32
}

// Outcome classifies a diagnosis decision.
type Outcome int

const (
	// OutcomeAccepted: the top prediction met the confidence threshold and
	// resolved to a catalog label.
	OutcomeAccepted Outcome = iota
	// OutcomeLowConfidence: the top probability fell below the threshold;
	// the image is treated as "not confident / not a plant".
	OutcomeLowConfidence
	// OutcomeNoPrediction: the ranking was empty. Should not occur when the
	// classifier honors its output contract.
	OutcomeNoPrediction
	// OutcomeIndexOutOfRange: the winning index has no catalog label,
	// indicating catalog/model version skew.
	OutcomeIndexOutOfRange
)

// String returns the outcome's wire name.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeLowConfidence:
		return "low_confidence"
	case OutcomeNoPrediction:
		return "no_prediction"
	case OutcomeIndexOutOfRange:
		return "index_out_of_range"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Diagnosis is the final decision for one inference call. Species and
// Status are only set for OutcomeAccepted; Confidence carries the top
// probability for both accepted and low-confidence outcomes.
type Diagnosis struct {
	Outcome    Outcome
	Species    string
	Status     string
	Confidence float64
}

// Rank orders the full probability vector by probability descending.
// Ties break by original index ascending (stable sort), so the lowest index
// among equal top probabilities always wins. This mirrors a strict
// greater-than argmax scan and keeps results reproducible.
func Rank(probs []float32) []Prediction {
	ranking := make([]Prediction, len(probs))
	for i, p := range probs {
		ranking[i] = Prediction{Index: i, Probability: p}
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Probability > ranking[j].Probability
	})
	return ranking
}

// Decide gates the top-ranked prediction with the confidence threshold and
// resolves it against the catalog. The threshold is checked before index
// validity and is inclusive: a top probability exactly at the threshold is
// accepted.
func Decide(ranking []Prediction, catalog *labels.Catalog, threshold float64) Diagnosis {
	if len(ranking) == 0 {
		return Diagnosis{Outcome: OutcomeNoPrediction}
	}

	best := ranking[0]
	confidence := float64(best.Probability)
	// Compare at float32 precision: widening the probability first would
	// reject a probability exactly at the threshold (0.7 as float32 widens
	// below 0.7 as float64).
	if best.Probability < float32(threshold) {
		return Diagnosis{Outcome: OutcomeLowConfidence, Confidence: confidence}
	}

	label, ok := catalog.Get(best.Index)
	if !ok {
		return Diagnosis{Outcome: OutcomeIndexOutOfRange, Confidence: confidence}
	}

	return Diagnosis{
		Outcome:    OutcomeAccepted,
		Species:    label.Species,
		Status:     label.Status,
		Confidence: confidence,
	}
}
