package pipeline

import (
	"errors"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantis/leafscan/internal/labels"
	"github.com/verdantis/leafscan/internal/tensor"
	"github.com/verdantis/leafscan/internal/testutil"
)

// fakeClassifier returns a fixed probability vector, an error, or panics.
type fakeClassifier struct {
	probs  []float32
	err    error
	panics bool
	closed bool
	runs   int
}

func (f *fakeClassifier) Run(_ tensor.Image) ([]float32, error) {
	f.runs++
	if f.panics {
		panic("executor blew up")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.probs, nil
}

func (f *fakeClassifier) Close() error {
	f.closed = true
	return nil
}

func mustCatalog(t *testing.T, text string) *labels.Catalog {
	t.Helper()
	catalog, err := labels.Parse(text)
	require.NoError(t, err)
	return catalog
}

func TestPipelineAcceptedDiagnosis(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\nApple___rust\n")
	cls := &fakeClassifier{probs: []float32{0.15, 0.85}}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 64, Height: 64})
	res, err := p.ClassifyImage(img)
	require.NoError(t, err)

	assert.Equal(t, "accepted", res.Outcome)
	assert.Equal(t, "Apple", res.Species)
	assert.Equal(t, "rust", res.Status)
	assert.InDelta(t, 0.85, res.Confidence, 1e-6)
	assert.Equal(t, 64, res.Width)
	assert.Equal(t, 64, res.Height)
	require.Len(t, res.Top, 2)
	assert.Equal(t, 1, res.Top[0].Index)
	assert.Equal(t, 0, res.Top[1].Index)
}

func TestPipelineLowConfidence(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\nApple___rust\n")
	cls := &fakeClassifier{probs: []float32{0.5, 0.5}}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	img := testutil.SolidImage(testutil.ImageSize{Width: 32, Height: 32}, color.Gray{Y: 128})
	res, err := p.ClassifyImage(img)
	require.NoError(t, err)

	assert.Equal(t, "low_confidence", res.Outcome)
	assert.Empty(t, res.Species)
	assert.Empty(t, res.Status)
	assert.InDelta(t, 0.5, res.Confidence, 1e-6)
	// Tie at the top: index 0 wins.
	require.NotEmpty(t, res.Top)
	assert.Equal(t, 0, res.Top[0].Index)
}

func TestPipelineThresholdInclusive(t *testing.T) {
	catalog := mustCatalog(t, "Tomato___healthy\n")
	cls := &fakeClassifier{probs: []float32{0.70}}
	p := New(catalog, cls, 0.70, DefaultTopN)

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 16, Height: 16})
	res, err := p.ClassifyImage(img)
	require.NoError(t, err)
	assert.Equal(t, "accepted", res.Outcome)
}

func TestPipelineShapeMismatch(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\nApple___rust\nApple___scab\n")
	cls := &fakeClassifier{probs: []float32{0.9, 0.1}}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 16, Height: 16})
	res, err := p.ClassifyImage(img)
	require.Error(t, err)
	assert.Nil(t, res)

	var mismatch *ShapeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 3, mismatch.Expected)
	assert.Equal(t, 2, mismatch.Actual)
}

func TestPipelineClassifierError(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\n")
	sentinel := errors.New("session lost")
	cls := &fakeClassifier{err: sentinel}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 16, Height: 16})
	_, err := p.ClassifyImage(img)
	require.Error(t, err)

	var cerr *ClassifierError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, sentinel)
}

func TestPipelineRecoversClassifierPanic(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\n")
	cls := &fakeClassifier{panics: true}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 16, Height: 16})
	_, err := p.ClassifyImage(img)
	require.Error(t, err)

	var cerr *ClassifierError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "panic")
}

func TestPipelineTopNBounded(t *testing.T) {
	catalog := mustCatalog(t, "A___a\nB___b\nC___c\nD___d\n")
	cls := &fakeClassifier{probs: []float32{0.1, 0.8, 0.05, 0.05}}
	p := New(catalog, cls, 0.5, 2)

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 16, Height: 16})
	res, err := p.ClassifyImage(img)
	require.NoError(t, err)
	require.Len(t, res.Top, 2)
	assert.Equal(t, 1, res.Top[0].Index)
	assert.Equal(t, "B", res.Top[0].Species)
}

func TestPipelineClassifyBytes(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\nApple___rust\n")
	cls := &fakeClassifier{probs: []float32{0.9, 0.1}}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 48, Height: 48})
	data := testutil.EncodePNG(t, img)

	res, err := p.ClassifyBytes(data)
	require.NoError(t, err)
	assert.Equal(t, "accepted", res.Outcome)
	assert.Equal(t, "healthy", res.Status)
	assert.Equal(t, 48, res.Width)
}

func TestPipelineClassifyBytesDecodeError(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\n")
	cls := &fakeClassifier{probs: []float32{1}}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	_, err := p.ClassifyBytes([]byte("not an image"))
	require.Error(t, err)
	assert.Zero(t, cls.runs)
}

func TestPipelineClose(t *testing.T) {
	catalog := mustCatalog(t, "Apple___healthy\n")
	cls := &fakeClassifier{probs: []float32{1}}
	p := New(catalog, cls, DefaultThreshold, DefaultTopN)

	require.NoError(t, p.Close())
	assert.True(t, cls.closed)
	assert.Error(t, p.Close())

	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 16, Height: 16})
	_, err := p.ClassifyImage(img)
	assert.Error(t, err)
}

func TestBuilderThresholdValidation(t *testing.T) {
	b := NewBuilder().WithThreshold(1.5)
	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
}

func TestBuilderDefaults(t *testing.T) {
	cfg := NewBuilder().Config()
	assert.InDelta(t, DefaultThreshold, cfg.Threshold, 1e-9)
	assert.Equal(t, DefaultTopN, cfg.TopN)
}
