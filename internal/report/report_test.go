package report

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"contour-counter/internal/opencv/safe"
	"contour-counter/internal/pipeline"
)

func grayRamp(t *testing.T) *safe.Mat {
	t.Helper()
	m, err := safe.NewZeroMat(16, 16, gocv.MatTypeCV8UC1, nil, "gray")
	require.NoError(t, err)
	t.Cleanup(m.Close)

	raw := m.GetMat()
	for i := 0; i < 256; i++ {
		raw.SetUCharAt(i/16, i%16, uint8(i))
	}
	return m
}

func runCircles(t *testing.T) *pipeline.Result {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 120, 240, gocv.MatTypeCV8UC3)
	defer img.Close()
	for _, c := range []image.Point{{X: 40, Y: 60}, {X: 120, Y: 60}, {X: 200, Y: 60}} {
		gocv.Circle(&img, c, 20, color.RGBA{A: 255}, -1)
	}
	path := filepath.Join(t.TempDir(), "circles.png")
	require.True(t, gocv.IMWrite(path, img))

	result, err := pipeline.New().Run(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(result.Close)
	return result
}

func TestWriteHistogramProducesPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistogram(&buf, grayRamp(t), 220))

	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, histogramWidth, cfg.Width)
	assert.Equal(t, histogramHeight, cfg.Height)
}

func TestWriteHistogramValidation(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteHistogram(&buf, grayRamp(t), -1))

	color3, err := safe.NewZeroMat(4, 4, gocv.MatTypeCV8UC3, nil, "color")
	require.NoError(t, err)
	defer color3.Close()
	assert.Error(t, WriteHistogram(&buf, color3, 220))
}

func TestSaveHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hist.png")
	require.NoError(t, SaveHistogram(path, grayRamp(t), 128))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestContactSheet(t *testing.T) {
	result := runCircles(t)

	var buf bytes.Buffer
	require.NoError(t, ContactSheet(&buf, result))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	// One page per artifact plus the summary page.
	assert.Equal(t, len(pipeline.ArtifactNames())+1, bytes.Count(buf.Bytes(), []byte("/Type /Page\n")))

	path := filepath.Join(t.TempDir(), "sheet.pdf")
	require.NoError(t, SaveContactSheet(path, result))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestContactSheetRejectsEmptyResult(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, ContactSheet(&buf, &pipeline.Result{}))
}
