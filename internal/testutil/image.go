package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ImageSize represents common image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes.
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
	SquareSize = ImageSize{160, 160}
)

// SolidImage creates a uniformly colored RGBA image.
func SolidImage(size ImageSize, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// LeafLikeImage creates a green rectangle on a white background, a crude
// stand-in for a leaf photo in pipeline tests.
func LeafLikeImage(size ImageSize) *image.RGBA {
	img := SolidImage(size, color.White)
	leaf := image.Rect(size.Width/4, size.Height/4, 3*size.Width/4, 3*size.Height/4)
	draw.Draw(img, leaf, &image.Uniform{color.RGBA{34, 139, 34, 255}}, image.Point{}, draw.Src)
	return img
}

// EncodePNG encodes an image to PNG bytes.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// EncodeJPEG encodes an image to JPEG bytes at default quality.
func EncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// WritePNG writes an image as a PNG file under dir and returns the path.
func WritePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, EncodePNG(t, img), 0o644))
	return path
}
