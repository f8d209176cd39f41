package batch

import (
	"image/color"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/leafscan/internal/labels"
	"github.com/verdantis/leafscan/internal/pipeline"
	"github.com/verdantis/leafscan/internal/tensor"
	"github.com/verdantis/leafscan/internal/testutil"
)

type fakeClassifier struct {
	probs []float32
	runs  atomic.Int64
}

func (f *fakeClassifier) Run(_ tensor.Image) ([]float32, error) {
	f.runs.Add(1)
	out := make([]float32, len(f.probs))
	copy(out, f.probs)
	return out, nil
}

func (f *fakeClassifier) Close() error { return nil }

func testPipeline(t *testing.T) (*pipeline.Pipeline, *fakeClassifier) {
	t.Helper()
	catalog, err := labels.Parse("Apple___healthy\nApple___Cedar_apple_rust\n")
	require.NoError(t, err)
	cls := &fakeClassifier{probs: []float32{0.1, 0.9}}
	return pipeline.New(catalog, cls, 0.7, 5), cls
}

func writeTestImages(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	img := testutil.SolidImage(testutil.SquareSize, color.Gray{Y: 128})
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = testutil.WritePNG(t, dir, name, img)
	}
	return paths
}

func TestProcessImagesParallel(t *testing.T) {
	dir := t.TempDir()
	paths := writeTestImages(t, dir, "a.png", "b.png", "c.png", "d.png")

	pl, cls := testPipeline(t)
	defer func() { require.NoError(t, pl.Close()) }()

	results, err := processImagesParallel(pl, paths, 3, false)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.EqualValues(t, 4, cls.runs.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, "accepted", res.Outcome)
		assert.Equal(t, "Apple", res.Species)
		assert.Equal(t, "Cedar apple rust", res.Status)
	}
}

func TestProcessImagesParallelSingleWorker(t *testing.T) {
	dir := t.TempDir()
	paths := writeTestImages(t, dir, "a.png", "b.png")

	pl, _ := testPipeline(t)
	defer func() { require.NoError(t, pl.Close()) }()

	results, err := processImagesParallel(pl, paths, 0, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NotNil(t, results[0])
	assert.NotNil(t, results[1])
}

func TestProcessImagesParallelStopsOnError(t *testing.T) {
	dir := t.TempDir()
	paths := writeTestImages(t, dir, "a.png")
	paths = append(paths, filepath.Join(dir, "missing.png"))

	pl, _ := testPipeline(t)
	defer func() { require.NoError(t, pl.Close()) }()

	_, err := processImagesParallel(pl, paths, 2, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.png")
}

func TestProcessImagesParallelContinueOnError(t *testing.T) {
	dir := t.TempDir()
	good := writeTestImages(t, dir, "a.png", "b.png")
	paths := []string{good[0], filepath.Join(dir, "missing.png"), good[1]}

	pl, _ := testPipeline(t)
	defer func() { require.NoError(t, pl.Close()) }()

	results, err := processImagesParallel(pl, paths, 2, true)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.InDelta(t, pipeline.DefaultThreshold, cfg.Threshold, 1e-9)
	assert.Equal(t, pipeline.DefaultTopN, cfg.TopN)
	assert.Positive(t, cfg.Workers)
	assert.Equal(t, "text", cfg.Format)
}

func TestResultCounters(t *testing.T) {
	r := &Result{
		Results:    []*pipeline.Result{{Outcome: "accepted"}, nil, {Outcome: "low_confidence"}},
		ImagePaths: []string{"a.png", "b.png", "c.png"},
		Duration:   time.Second,
	}
	assert.Equal(t, 2, r.Succeeded())
	assert.Equal(t, 1, r.Failed())
}

func TestProcessBatchNoFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	cfg := DefaultConfig()
	_, err := ProcessBatch([]string{dir}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files found")
}
