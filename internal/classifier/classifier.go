// Package classifier defines the model-execution boundary of the inference
// pipeline and its ONNX Runtime implementation. The pipeline only ever sees
// the Classifier interface; model loading and lifecycle stay here.
package classifier

import (
	"github.com/verdantis/leafscan/internal/models"
	"github.com/verdantis/leafscan/internal/preprocess"
	"github.com/verdantis/leafscan/internal/tensor"
)

// Classifier maps a fixed-shape input tensor to a probability vector over
// label indices. Implementations must either be reentrant or serialize
// access internally; the pipeline invokes Run concurrently.
type Classifier interface {
	Run(t tensor.Image) ([]float32, error)
	Close() error
}

// Config controls classifier construction.
type Config struct {
	ModelPath      string
	UseServerModel bool
	NumThreads     int
	InputSize      int
	// EnableWarmup runs a dummy inference after session creation so the
	// first real prediction does not pay session initialization costs.
	EnableWarmup bool
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		ModelPath:      models.GetClassifierModelPath("", false),
		UseServerModel: false,
		NumThreads:     0,
		InputSize:      preprocess.InputSize,
		EnableWarmup:   false,
	}
}

// UpdateModelPath re-resolves the model path under the given models directory.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetClassifierModelPath(modelsDir, c.UseServerModel)
}
