package preview

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"contour-counter/internal/pipeline"
)

func TestViewHasTabPerArtifact(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 80, 120, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(20, 20, 60, 60), color.RGBA{A: 255}, -1)
	path := filepath.Join(t.TempDir(), "box.png")
	require.True(t, gocv.IMWrite(path, img))

	result, err := pipeline.New().Run(context.Background(), path)
	require.NoError(t, err)

	view, err := NewView(result)
	require.NoError(t, err)
	// Images are copied out, so the Mats can go away.
	result.Close()

	for _, name := range pipeline.ArtifactNames() {
		shown, ok := view.Image(name)
		require.True(t, ok, name)
		assert.Equal(t, 120, shown.Bounds().Dx(), name)
		assert.True(t, view.Select(name))
		assert.Equal(t, name, view.Selected())
	}
	assert.False(t, view.Select("missing"))
	assert.Contains(t, view.Status(), "1 objects found!")
	assert.NotNil(t, view.Content())
}

func TestNewViewRejectsEmptyResult(t *testing.T) {
	_, err := NewView(&pipeline.Result{})
	assert.Error(t, err)
}
