package preprocess

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/verdantis/leafscan/internal/mempool"
	"github.com/verdantis/leafscan/internal/tensor"
)

// Fixed model input contract. The classifier was exported with a
// 160x160x3 input, pixel values scaled to [-1, 1].
const (
	InputSize = 160
	Channels  = 3
	normDiv   = 127.5
)

// Error wraps failures during image preprocessing with the failing stage.
type Error struct {
	Operation string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("preprocess error in %s: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Decode parses encoded image bytes (JPEG, PNG, BMP) into an image.
func Decode(imageBytes []byte) (image.Image, error) {
	if len(imageBytes) == 0 {
		return nil, &Error{Operation: "decode", Err: errors.New("empty image data")}
	}
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, &Error{Operation: "decode", Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &Error{Operation: "decode", Err: errors.New("decoded image has no pixels")}
	}
	return img, nil
}

// ToTensor resizes an image to the fixed model resolution and normalizes it
// into an NHWC [1, InputSize, InputSize, Channels] tensor. The resize is a
// non-aspect-preserving stretch: the classifier's input shape is fixed and
// the model was trained on stretched crops. Lanczos resampling keeps the
// result deterministic for identical input.
func ToTensor(img image.Image) (tensor.Image, error) {
	if img == nil {
		return tensor.Image{}, &Error{Operation: "resize", Err: errors.New("input image is nil")}
	}

	resized := imaging.Resize(img, InputSize, InputSize, imaging.Lanczos)
	data, err := normalizeInto(resized, make([]float32, InputSize*InputSize*Channels))
	if err != nil {
		return tensor.Image{}, err
	}
	return tensor.NewImage(data, InputSize, InputSize, Channels)
}

// ToTensorPooled is ToTensor backed by a pooled buffer. The caller must
// return t.Data via mempool.PutFloat32 once the classifier call finished.
func ToTensorPooled(img image.Image) (tensor.Image, error) {
	if img == nil {
		return tensor.Image{}, &Error{Operation: "resize", Err: errors.New("input image is nil")}
	}

	resized := imaging.Resize(img, InputSize, InputSize, imaging.Lanczos)
	buf := mempool.GetFloat32(InputSize * InputSize * Channels)
	data, err := normalizeInto(resized, buf)
	if err != nil {
		mempool.PutFloat32(buf)
		return tensor.Image{}, err
	}
	return tensor.NewImage(data, InputSize, InputSize, Channels)
}

// FromBytes decodes encoded image bytes and converts them to a model input
// tensor in one step.
func FromBytes(imageBytes []byte) (tensor.Image, error) {
	img, err := Decode(imageBytes)
	if err != nil {
		return tensor.Image{}, err
	}
	return ToTensor(img)
}

// Normalize maps a pixel byte value (0..255) into the model's [-1, 1] range.
func Normalize(b uint8) float32 {
	return float32(b)/normDiv - 1.0
}

// normalizeInto writes the resized image into buf in NHWC order, channel
// order R,G,B, each byte mapped through Normalize.
func normalizeInto(img *image.NRGBA, buf []float32) ([]float32, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width != InputSize || height != InputSize {
		return nil, &Error{Operation: "resize", Err: fmt.Errorf("resized to %dx%d, want %dx%d", width, height, InputSize, InputSize)}
	}

	for y := range height {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := range width {
			idx := (y*width + x) * Channels
			buf[idx] = Normalize(row[x*4])
			buf[idx+1] = Normalize(row[x*4+1])
			buf[idx+2] = Normalize(row[x*4+2])
		}
	}
	return buf, nil
}
