package batch

import (
	"runtime"
	"time"

	"github.com/verdantis/leafscan/internal/pipeline"
)

// Config holds batch classification settings.
type Config struct {
	ModelsDir      string
	ModelPath      string
	LabelsPath     string
	UseServerModel bool
	NumThreads     int
	Threshold      float64
	TopN           int

	Workers         int
	Recursive       bool
	ContinueOnError bool
	IncludePatterns []string
	ExcludePatterns []string

	Format     string
	OutputFile string
}

// DefaultConfig returns batch settings matching the single-image defaults,
// with one worker per CPU.
func DefaultConfig() *Config {
	return &Config{
		Threshold: pipeline.DefaultThreshold,
		TopN:      pipeline.DefaultTopN,
		Workers:   runtime.NumCPU(),
		Format:    "text",
	}
}

// Result holds the outcome of a batch run. Results is index-aligned with
// ImagePaths; a nil entry marks a file that failed with ContinueOnError set.
type Result struct {
	Results     []*pipeline.Result
	ImagePaths  []string
	Duration    time.Duration
	WorkerCount int
}

// Succeeded returns how many images produced a result.
func (r *Result) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res != nil {
			n++
		}
	}
	return n
}

// Failed returns how many images produced no result.
func (r *Result) Failed() int {
	return len(r.Results) - r.Succeeded()
}
