package server

import (
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/verdantis/leafscan/internal/pipeline"
)

// classifyPipeline defines the methods the server needs from a pipeline.
// The indirection keeps handler tests free of ONNX model files.
type classifyPipeline interface {
	ClassifyImage(img image.Image) (*pipeline.Result, error)
	ClassifyBytes(data []byte) (*pipeline.Result, error)
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    classifyPipeline
	labels      []LabelInfo
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	PipelineConfig pipeline.Config
}

// Response types for API endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

type LabelInfo struct {
	Index   int    `json:"index"`
	Species string `json:"species"`
	Status  string `json:"status"`
}

type LabelsResponse struct {
	Labels []LabelInfo `json:"labels"`
	Count  int         `json:"count"`
}

type ModelInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type ModelsResponse struct {
	Models []ModelInfo `json:"models"`
	Count  int         `json:"count"`
}

type ClassifyResponse struct {
	Success bool             `json:"success"`
	Result  *pipeline.Result `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// NewServer creates a new classification server instance.
func NewServer(config Config) (*Server, error) {
	cfg := config.PipelineConfig

	b := pipeline.NewBuilder().
		WithModelsDir(cfg.ModelsDir).
		WithServerModel(cfg.Classifier.UseServerModel).
		WithThreads(cfg.Classifier.NumThreads).
		WithWarmup(cfg.Classifier.EnableWarmup).
		WithThreshold(cfg.Threshold).
		WithTopN(cfg.TopN)
	if cfg.Classifier.ModelPath != "" {
		b = b.WithModelPath(cfg.Classifier.ModelPath)
	}
	if cfg.LabelsPath != "" {
		b = b.WithLabelsPath(cfg.LabelsPath)
	}

	pl, err := b.Build()
	if err != nil {
		return nil, err
	}

	return newServerWithPipeline(pl, catalogLabels(pl), config), nil
}

// newServerWithPipeline assembles a server around an existing pipeline.
// Tests use it to inject a fake.
func newServerWithPipeline(pl classifyPipeline, labelList []LabelInfo, config Config) *Server {
	return &Server{
		pipeline:    pl,
		labels:      labelList,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}
}

// catalogLabels flattens the pipeline's label catalog for the labels endpoint.
func catalogLabels(pl *pipeline.Pipeline) []LabelInfo {
	all := pl.Catalog().All()
	out := make([]LabelInfo, len(all))
	for i, l := range all {
		out[i] = LabelInfo{Index: i, Species: l.Species, Status: l.Status}
	}
	return out
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/labels", s.corsMiddleware(s.labelsHandler))
	mux.HandleFunc("/models", s.corsMiddleware(s.modelsHandler))
	mux.HandleFunc("/classify", s.corsMiddleware(s.classifyHandler))
	mux.HandleFunc("/ws/classify", s.classifyWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
