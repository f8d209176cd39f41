package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewImage_Valid(t *testing.T) {
	data := make([]float32, 2*3*3)
	img, err := NewImage(data, 2, 3, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3, 3}, img.Shape)
	require.NoError(t, Verify(img))
}

func TestNewImage_NilData(t *testing.T) {
	_, err := NewImage(nil, 2, 2, 3)
	require.Error(t, err)
}

func TestNewImage_WrongLength(t *testing.T) {
	_, err := NewImage(make([]float32, 5), 2, 2, 3)
	require.Error(t, err)
}

func TestValidateNHWC(t *testing.T) {
	require.NoError(t, ValidateNHWC([]int64{1, 160, 160, 3}))
	require.Error(t, ValidateNHWC([]int64{1, 160, 160}))
	require.Error(t, ValidateNHWC([]int64{1, 0, 160, 3}))
	require.Error(t, ValidateNHWC([]int64{1, -1, 160, 3}))
}

func TestVerify_LengthMismatch(t *testing.T) {
	img := Image{Data: make([]float32, 10), Shape: []int64{1, 2, 2, 3}}
	require.Error(t, Verify(img))
}

func TestAt_NHWCLayout(t *testing.T) {
	// 1x2x2x3 tensor filled with distinct values.
	data := []float32{
		0, 1, 2, 3, 4, 5, // row 0: (0,0) and (0,1)
		6, 7, 8, 9, 10, 11, // row 1: (1,0) and (1,1)
	}
	img, err := NewImage(data, 2, 2, 3)
	require.NoError(t, err)

	assert.InDelta(t, 0, img.At(0, 0, 0), 1e-9)
	assert.InDelta(t, 2, img.At(0, 0, 2), 1e-9)
	assert.InDelta(t, 4, img.At(0, 1, 1), 1e-9)
	assert.InDelta(t, 9, img.At(1, 1, 0), 1e-9)
}

func TestStats(t *testing.T) {
	minV, maxV, mean := Stats([]float32{-1, 0, 1})
	assert.InDelta(t, -1, minV, 1e-6)
	assert.InDelta(t, 1, maxV, 1e-6)
	assert.InDelta(t, 0, mean, 1e-6)

	minV, maxV, mean = Stats(nil)
	assert.Zero(t, minV)
	assert.Zero(t, maxV)
	assert.Zero(t, mean)
}
