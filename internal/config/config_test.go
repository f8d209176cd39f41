package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/leafscan/internal/models"
	"github.com/verdantis/leafscan/internal/pipeline"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, models.DefaultModelsDir, cfg.ModelsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Verbose)
	assert.InDelta(t, pipeline.DefaultThreshold, cfg.Pipeline.Threshold, 1e-9)
	assert.Equal(t, pipeline.DefaultTopN, cfg.Pipeline.TopN)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, 8080, cfg.Server.Port)

	require.NoError(t, cfg.Validate())
}

func TestValidateLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "trace"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestValidateOutputFormat(t *testing.T) {
	cfg := DefaultConfig()

	for _, format := range []string{"text", "json", "csv", ""} {
		cfg.Output.Format = format
		assert.NoError(t, cfg.Validate(), "format %q", format)
	}

	cfg.Output.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestValidateThreshold(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Pipeline.Threshold = 0.0
	assert.NoError(t, cfg.Validate())

	cfg.Pipeline.Threshold = 1.0
	assert.NoError(t, cfg.Validate())

	cfg.Pipeline.Threshold = 1.01
	assert.Error(t, cfg.Validate())

	cfg.Pipeline.Threshold = -0.1
	assert.Error(t, cfg.Validate())
}

func TestValidateServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.MaxUploadMB = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Server.TimeoutSec = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateTopN(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.TopN = 0
	assert.Error(t, cfg.Validate())
}

func TestToPipelineConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	pc := cfg.ToPipelineConfig()

	assert.InDelta(t, pipeline.DefaultThreshold, pc.Threshold, 1e-9)
	assert.Equal(t, pipeline.DefaultTopN, pc.TopN)
	assert.Contains(t, pc.Classifier.ModelPath, models.ClassifierMobile)
	assert.Contains(t, pc.LabelsPath, models.LabelsPlantVillage)
}

func TestToPipelineConfigOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelsDir = "/opt/assets"
	cfg.Pipeline.Classifier.ModelPath = "custom.onnx"
	cfg.Pipeline.LabelsPath = "custom_labels.txt"
	cfg.Pipeline.Classifier.UseServerModel = true
	cfg.Pipeline.Classifier.NumThreads = 4
	cfg.Pipeline.Threshold = 0.9
	cfg.Pipeline.TopN = 3

	pc := cfg.ToPipelineConfig()
	assert.Equal(t, "custom.onnx", pc.Classifier.ModelPath)
	assert.Equal(t, "custom_labels.txt", pc.LabelsPath)
	assert.True(t, pc.Classifier.UseServerModel)
	assert.Equal(t, 4, pc.Classifier.NumThreads)
	assert.InDelta(t, 0.9, pc.Threshold, 1e-9)
	assert.Equal(t, 3, pc.TopN)
	assert.Equal(t, "/opt/assets", pc.ModelsDir)
}

func TestToPipelineConfigServerModelPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pipeline.Classifier.UseServerModel = true

	pc := cfg.ToPipelineConfig()
	assert.Contains(t, pc.Classifier.ModelPath, models.ClassifierServer)
}
