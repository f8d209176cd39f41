package preprocess

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantis/leafscan/internal/mempool"
	"github.com/verdantis/leafscan/internal/tensor"
	"github.com/verdantis/leafscan/internal/testutil"
)

func TestNormalize_Boundaries(t *testing.T) {
	assert.InDelta(t, -1.0, Normalize(0), 1e-9)
	assert.InDelta(t, 1.0, Normalize(255), 1e-9)
	assert.InDelta(t, -0.00392, Normalize(127), 1e-5)
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(nil)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "decode", perr.Operation)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	require.Error(t, err)
}

func TestDecode_PNGAndJPEG(t *testing.T) {
	img := testutil.LeafLikeImage(testutil.SmallSize)

	decoded, err := Decode(testutil.EncodePNG(t, img))
	require.NoError(t, err)
	assert.Equal(t, 320, decoded.Bounds().Dx())

	decoded, err = Decode(testutil.EncodeJPEG(t, img))
	require.NoError(t, err)
	assert.Equal(t, 240, decoded.Bounds().Dy())
}

func TestToTensor_ShapeAndRange(t *testing.T) {
	img := testutil.LeafLikeImage(testutil.MediumSize)

	ts, err := ToTensor(img)
	require.NoError(t, err)
	require.Equal(t, []int64{1, InputSize, InputSize, Channels}, ts.Shape)
	require.Len(t, ts.Data, InputSize*InputSize*Channels)
	require.NoError(t, tensor.Verify(ts))

	minV, maxV, _ := tensor.Stats(ts.Data)
	assert.GreaterOrEqual(t, minV, float32(-1.0))
	assert.LessOrEqual(t, maxV, float32(1.0))
}

func TestToTensor_ChannelOrder(t *testing.T) {
	// Pure red: R channel must map to 1.0, G and B to -1.0, in NHWC order.
	img := testutil.SolidImage(testutil.SquareSize, color.RGBA{255, 0, 0, 255})

	ts, err := ToTensor(img)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, ts.At(0, 0, 0), 1e-3)
	assert.InDelta(t, -1.0, ts.At(0, 0, 1), 1e-3)
	assert.InDelta(t, -1.0, ts.At(0, 0, 2), 1e-3)
	assert.InDelta(t, 1.0, ts.At(80, 80, 0), 1e-3)
}

func TestToTensor_StretchesAspectRatio(t *testing.T) {
	// A wide image must still produce the fixed square tensor.
	img := testutil.LeafLikeImage(testutil.ImageSize{Width: 800, Height: 100})

	ts, err := ToTensor(img)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, InputSize, InputSize, Channels}, ts.Shape)
}

func TestToTensor_Nil(t *testing.T) {
	_, err := ToTensor(nil)
	require.Error(t, err)
}

func TestFromBytes_Deterministic(t *testing.T) {
	data := testutil.EncodePNG(t, testutil.LeafLikeImage(testutil.SmallSize))

	a, err := FromBytes(data)
	require.NoError(t, err)
	b, err := FromBytes(data)
	require.NoError(t, err)

	require.Equal(t, a.Shape, b.Shape)
	require.Equal(t, a.Data, b.Data)
}

func TestFromBytes_DecodeFailureShortCircuits(t *testing.T) {
	_, err := FromBytes([]byte{0x00, 0x01})
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "decode", perr.Operation)
}

func TestToTensorPooled_MatchesUnpooled(t *testing.T) {
	img := testutil.LeafLikeImage(testutil.SmallSize)

	plain, err := ToTensor(img)
	require.NoError(t, err)

	pooled, err := ToTensorPooled(img)
	require.NoError(t, err)
	defer mempool.PutFloat32(pooled.Data)

	require.Equal(t, plain.Data, pooled.Data)
}
