package conversion

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"contour-counter/internal/opencv/safe"
)

func TestImageToMatAndBack(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetRGBA(2, 1, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	mat, err := ImageToMat(src, nil, "rgba")
	require.NoError(t, err)
	defer mat.Close()

	assert.Equal(t, 3, mat.Channels())
	b, err := mat.GetUCharAt3(0, 0, 0)
	require.NoError(t, err)
	r, err := mat.GetUCharAt3(0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint8(30), b)
	assert.Equal(t, uint8(10), r)

	back, err := MatToImage(mat)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, back.At(2, 1))
	assert.Equal(t, src.Bounds(), back.Bounds())
}

func TestGrayRoundTrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.SetGray(1, 2, color.Gray{Y: 77})

	mat, err := ImageToMat(src, nil, "gray")
	require.NoError(t, err)
	defer mat.Close()
	assert.Equal(t, 1, mat.Channels())

	back, err := MatToImage(mat)
	require.NoError(t, err)
	gray, ok := back.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(77), gray.GrayAt(1, 2).Y)
}

func TestGrayHistogramAndBinary(t *testing.T) {
	mat, err := safe.NewZeroMat(4, 5, gocv.MatTypeCV8UC1, nil, "")
	require.NoError(t, err)
	defer mat.Close()

	raw := mat.GetMat()
	raw.SetUCharAt(0, 0, 255)
	raw.SetUCharAt(1, 1, 255)

	hist, err := GrayHistogram(mat)
	require.NoError(t, err)
	assert.Equal(t, 18, hist[0])
	assert.Equal(t, 2, hist[255])

	binary, err := IsBinary(mat)
	require.NoError(t, err)
	assert.True(t, binary)

	count, err := CountForeground(mat)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	raw.SetUCharAt(2, 2, 128)
	binary, err = IsBinary(mat)
	require.NoError(t, err)
	assert.False(t, binary)
}

func TestEqual(t *testing.T) {
	a, err := safe.NewZeroMat(3, 3, gocv.MatTypeCV8UC3, nil, "")
	require.NoError(t, err)
	defer a.Close()
	b, err := a.Clone("b")
	require.NoError(t, err)
	defer b.Close()

	same, err := Equal(a, b)
	require.NoError(t, err)
	assert.True(t, same)

	raw := b.GetMat()
	raw.SetUCharAt3(1, 1, 2, 9)
	same, err = Equal(a, b)
	require.NoError(t, err)
	assert.False(t, same)
}
