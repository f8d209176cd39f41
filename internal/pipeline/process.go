package pipeline

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/verdantis/leafscan/internal/mempool"
	"github.com/verdantis/leafscan/internal/preprocess"
	"github.com/verdantis/leafscan/internal/ranker"
	"github.com/verdantis/leafscan/internal/tensor"
)

// RankedLabel is one entry of the ranked prediction list attached to a
// result. Species/Status stay empty when the index has no catalog label.
type RankedLabel struct {
	Index       int     `json:"index"`
	Species     string  `json:"species,omitempty"`
	Status      string  `json:"status,omitempty"`
	Probability float32 `json:"probability"`
}

// Result is the outcome of one classification call.
type Result struct {
	Outcome    string        `json:"outcome"`
	Species    string        `json:"species,omitempty"`
	Status     string        `json:"status,omitempty"`
	Confidence float64       `json:"confidence"`
	Top        []RankedLabel `json:"top_predictions"`
	Width      int           `json:"width"`
	Height     int           `json:"height"`
	Processing struct {
		TotalNs int64 `json:"total_ns"`
	} `json:"processing"`
}

// ClassifyImage runs the full pipeline on a decoded image:
// preprocess, classify, validate output shape, rank, decide.
func (p *Pipeline) ClassifyImage(img image.Image) (*Result, error) {
	if img == nil {
		return nil, &preprocess.Error{Operation: "resize", Err: errors.New("input image is nil")}
	}
	if p.cls == nil {
		return nil, errors.New("pipeline closed")
	}
	start := time.Now()

	t, err := preprocess.ToTensorPooled(img)
	if err != nil {
		return nil, err
	}
	defer mempool.PutFloat32(t.Data)

	probs, err := p.runClassifier(t)
	if err != nil {
		return nil, err
	}

	if len(probs) != p.catalog.Size() {
		return nil, &ShapeMismatchError{Expected: p.catalog.Size(), Actual: len(probs)}
	}

	ranking := ranker.Rank(probs)
	diag := ranker.Decide(ranking, p.catalog, p.threshold)

	res := p.buildResult(diag, ranking)
	b := img.Bounds()
	res.Width = b.Dx()
	res.Height = b.Dy()
	res.Processing.TotalNs = time.Since(start).Nanoseconds()
	return res, nil
}

// ClassifyBytes decodes encoded image bytes and classifies them. Decode
// failures surface as *preprocess.Error with operation "decode".
func (p *Pipeline) ClassifyBytes(imageBytes []byte) (*Result, error) {
	img, err := preprocess.Decode(imageBytes)
	if err != nil {
		return nil, err
	}
	return p.ClassifyImage(img)
}

// runClassifier invokes the classifier, converting errors and recovered
// panics into *ClassifierError. The executor is opaque; its failures must
// not crash the caller.
func (p *Pipeline) runClassifier(t tensor.Image) (probs []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			probs = nil
			err = &ClassifierError{Err: fmt.Errorf("classifier panic: %v", r)}
		}
	}()

	probs, runErr := p.cls.Run(t)
	if runErr != nil {
		return nil, &ClassifierError{Err: runErr}
	}
	return probs, nil
}

// buildResult assembles the result payload from a diagnosis and ranking.
func (p *Pipeline) buildResult(diag ranker.Diagnosis, ranking []ranker.Prediction) *Result {
	res := &Result{
		Outcome:    diag.Outcome.String(),
		Species:    diag.Species,
		Status:     diag.Status,
		Confidence: diag.Confidence,
	}

	n := p.topN
	if n > len(ranking) {
		n = len(ranking)
	}
	res.Top = make([]RankedLabel, 0, n)
	for _, pred := range ranking[:n] {
		entry := RankedLabel{Index: pred.Index, Probability: pred.Probability}
		if label, ok := p.catalog.Get(pred.Index); ok {
			entry.Species = label.Species
			entry.Status = label.Status
		}
		res.Top = append(res.Top, entry)
	}
	return res
}
