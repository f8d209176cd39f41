package tensor

import (
	"errors"
	"fmt"
)

// Image represents a float32 tensor prepared for classifier input.
// Data layout is row-major NHWC: index = ((y*W)+x)*C + c.
type Image struct {
	Data  []float32
	Shape []int64 // [N, H, W, C]
}

// NewImage builds a single-image tensor with shape [1, H, W, C].
// data must be length H*W*C in NHWC order.
func NewImage(data []float32, h, w, c int) (Image, error) {
	if data == nil {
		return Image{}, errors.New("nil data")
	}
	expected := h * w * c
	if len(data) != expected {
		return Image{}, fmt.Errorf("unexpected data length: got %d, want %d", len(data), expected)
	}
	shape := []int64{1, int64(h), int64(w), int64(c)}
	return Image{Data: data, Shape: shape}, nil
}

// ValidateNHWC ensures a shape is [N, H, W, C] with positive dimensions.
func ValidateNHWC(shape []int64) error {
	if len(shape) != 4 {
		return fmt.Errorf("shape rank %d != 4", len(shape))
	}
	for i, v := range shape {
		if v <= 0 {
			return fmt.Errorf("dimension %d must be > 0, got %d", i, v)
		}
	}
	return nil
}

// Verify checks that data length matches the NHWC shape.
func Verify(t Image) error {
	if err := ValidateNHWC(t.Shape); err != nil {
		return err
	}
	n, h, w, c := t.Shape[0], t.Shape[1], t.Shape[2], t.Shape[3]
	expected := int(n * h * w * c)
	if len(t.Data) != expected {
		return fmt.Errorf("tensor data length %d != expected %d for shape %v", len(t.Data), expected, t.Shape)
	}
	return nil
}

// At returns the value at (y, x, channel) of a single-image tensor.
func (t Image) At(y, x, c int) float32 {
	w := int(t.Shape[2])
	ch := int(t.Shape[3])
	return t.Data[(y*w+x)*ch+c]
}

// Stats computes min, max and mean for debug output.
func Stats(data []float32) (float32, float32, float32) {
	if len(data) == 0 {
		return 0, 0, 0
	}
	minVal, maxVal := data[0], data[0]
	var sum float64
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
		sum += float64(v)
	}
	return minVal, maxVal, float32(sum / float64(len(data)))
}
