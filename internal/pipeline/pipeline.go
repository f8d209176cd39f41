// Package pipeline orchestrates leaf classification: image to tensor,
// tensor through the classifier, raw probabilities into a ranked diagnosis.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/verdantis/leafscan/internal/classifier"
	"github.com/verdantis/leafscan/internal/labels"
	"github.com/verdantis/leafscan/internal/models"
)

// Default decision constants. The threshold gates acceptance of the top
// prediction; TopN bounds the ranked list attached to results.
const (
	DefaultThreshold = 0.70
	DefaultTopN      = 5
)

// Config holds configuration for the classification pipeline.
type Config struct {
	ModelsDir  string
	Classifier classifier.Config
	LabelsPath string
	Threshold  float64
	TopN       int
}

// DefaultConfig returns a default pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir:  models.GetModelsDir(""),
		Classifier: classifier.DefaultConfig(),
		LabelsPath: models.GetLabelsPath("", models.LabelsPlantVillage),
		Threshold:  DefaultThreshold,
		TopN:       DefaultTopN,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithModelsDir sets the models directory and re-resolves asset paths.
func (b *Builder) WithModelsDir(dir string) *Builder {
	if dir != "" {
		b.cfg.ModelsDir = dir
	}
	b.cfg.Classifier.UpdateModelPath(b.cfg.ModelsDir)
	b.cfg.LabelsPath = models.GetLabelsPath(b.cfg.ModelsDir, models.LabelsPlantVillage)
	return b
}

// WithModelPath overrides the classifier model path directly.
func (b *Builder) WithModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Classifier.ModelPath = path
	}
	return b
}

// WithLabelsPath overrides the label resource path directly.
func (b *Builder) WithLabelsPath(path string) *Builder {
	if path != "" {
		b.cfg.LabelsPath = path
	}
	return b
}

// WithServerModel toggles the heavier server classifier variant.
func (b *Builder) WithServerModel(useServer bool) *Builder {
	b.cfg.Classifier.UseServerModel = useServer
	b.cfg.Classifier.UpdateModelPath(b.cfg.ModelsDir)
	return b
}

// WithThreshold sets the confidence threshold for accepting a diagnosis.
func (b *Builder) WithThreshold(threshold float64) *Builder {
	if threshold > 0 {
		b.cfg.Threshold = threshold
	}
	return b
}

// WithTopN sets how many ranked predictions results carry.
func (b *Builder) WithTopN(n int) *Builder {
	if n > 0 {
		b.cfg.TopN = n
	}
	return b
}

// WithThreads sets the intra-op thread count for the ONNX session.
func (b *Builder) WithThreads(n int) *Builder {
	if n > 0 {
		b.cfg.Classifier.NumThreads = n
	}
	return b
}

// WithWarmup enables a dummy inference after session creation.
func (b *Builder) WithWarmup(enable bool) *Builder {
	b.cfg.Classifier.EnableWarmup = enable
	return b
}

// Config returns a copy of the builder's current configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build loads the label catalog and the ONNX classifier and assembles the
// pipeline. The catalog is loaded once and read-only afterwards.
func (b *Builder) Build() (*Pipeline, error) {
	if b.cfg.Threshold < 0 || b.cfg.Threshold > 1 {
		return nil, fmt.Errorf("invalid confidence threshold: %.2f (must be between 0.0 and 1.0)", b.cfg.Threshold)
	}

	catalog, err := labels.Load(b.cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}

	cls, err := classifier.NewONNX(b.cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("load classifier: %w", err)
	}

	slog.Info("classification pipeline ready",
		"model", b.cfg.Classifier.ModelPath,
		"labels", b.cfg.LabelsPath,
		"classes", catalog.Size(),
		"threshold", b.cfg.Threshold)

	return New(catalog, cls, b.cfg.Threshold, b.cfg.TopN), nil
}

// Pipeline runs classification end to end. It holds no mutable state across
// calls; concurrent use is safe as long as the classifier is reentrant.
type Pipeline struct {
	catalog   *labels.Catalog
	cls       classifier.Classifier
	threshold float64
	topN      int
}

// New assembles a pipeline from already-constructed components. Used by
// Build and by tests that inject a fake classifier.
func New(catalog *labels.Catalog, cls classifier.Classifier, threshold float64, topN int) *Pipeline {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Pipeline{catalog: catalog, cls: cls, threshold: threshold, topN: topN}
}

// Catalog exposes the loaded label catalog (read-only).
func (p *Pipeline) Catalog() *labels.Catalog { return p.catalog }

// Threshold returns the configured confidence threshold.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// Close releases classifier resources.
func (p *Pipeline) Close() error {
	if p.cls == nil {
		return errors.New("pipeline already closed")
	}
	err := p.cls.Close()
	p.cls = nil
	return err
}
