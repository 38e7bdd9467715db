package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"contour-counter/internal/debug/timing"
	"contour-counter/internal/opencv/memory"
)

// writeCircles saves a white 200x300 image with three black filled circles.
func writeCircles(t *testing.T) string {
	t.Helper()
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 200, 300, gocv.MatTypeCV8UC3)
	defer img.Close()

	black := color.RGBA{A: 255}
	for _, center := range []image.Point{{X: 60, Y: 100}, {X: 150, Y: 100}, {X: 240, Y: 100}} {
		gocv.Circle(&img, center, 30, black, -1)
	}

	path := filepath.Join(t.TempDir(), "circles.png")
	require.True(t, gocv.IMWrite(path, img))
	return path
}

func TestRunCountsThreeCircles(t *testing.T) {
	mgr := memory.NewManager(nil)
	p := New(WithMemoryManager(mgr))

	result, err := p.Run(context.Background(), writeCircles(t))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Contours.Len())
	assert.Equal(t, "3 objects found!", result.Label)
	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)

	names := make([]string, 0)
	for _, a := range result.Artifacts() {
		names = append(names, a.Name)
		assert.Equal(t, 200, a.Mat.Rows(), a.Name)
		assert.Equal(t, 300, a.Mat.Cols(), a.Name)
	}
	assert.Equal(t, ArtifactNames(), names)

	require.Len(t, result.Timings, len(ArtifactNames()))
	assert.Equal(t, ArtifactImage, result.Timings[0].Operation)

	thresh, ok := result.Artifact(ArtifactThresh)
	require.True(t, ok)
	inside, err := thresh.GetUCharAt(100, 60)
	require.NoError(t, err)
	assert.Equal(t, uint8(255), inside)
	outside, err := thresh.GetUCharAt(10, 10)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), outside)

	masked, ok := result.Artifact(ArtifactMasked)
	require.True(t, ok)
	background, err := masked.GetUCharAt3(10, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), background)

	_, ok = result.Artifact("missing")
	assert.False(t, ok)

	assert.EqualValues(t, len(ArtifactNames()), mgr.GetStats().ActiveMats)
	result.Close()
	assert.EqualValues(t, 0, mgr.GetStats().ActiveMats)
}

func TestRunDecodesGrayInputAsColor(t *testing.T) {
	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), 50, 50, gocv.MatTypeCV8UC1)
	defer gray.Close()
	gocv.Rectangle(&gray, image.Rect(10, 10, 30, 30), color.RGBA{A: 255}, -1)

	path := filepath.Join(t.TempDir(), "gray.png")
	require.True(t, gocv.IMWrite(path, gray))

	result, err := New().Run(context.Background(), path)
	require.NoError(t, err)
	defer result.Close()

	img, ok := result.Artifact(ArtifactImage)
	require.True(t, ok)
	assert.Equal(t, 3, img.Channels())
	assert.Equal(t, "1 objects found!", result.Label)
}

func TestRunMissingFile(t *testing.T) {
	mgr := memory.NewManager(nil)
	path := filepath.Join(t.TempDir(), "nope.png")

	_, err := New(WithMemoryManager(mgr)).Run(context.Background(), path)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.EqualValues(t, 0, mgr.GetStats().ActiveMats)
}

func TestRunUndecodableFile(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not an image"), 0o644))
	_, err := New().Run(context.Background(), garbage)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, ErrUndecodable)

	empty := filepath.Join(dir, "empty.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = New().Run(context.Background(), empty)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestRunCancelledContextReleasesEverything(t *testing.T) {
	path := writeCircles(t)
	mgr := memory.NewManager(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(WithMemoryManager(mgr)).Run(ctx, path)
	require.ErrorIs(t, err, context.Canceled)
	assert.EqualValues(t, 0, mgr.GetStats().ActiveMats)
}

func TestRunRejectsInvalidParams(t *testing.T) {
	params := DefaultParams()
	params.CannyLow = 200
	_, err := New(WithParams(params)).Run(context.Background(), "unused.png")
	assert.Error(t, err)
}

func TestSharedTimingTrackerKeepsPerRunTimings(t *testing.T) {
	path := writeCircles(t)
	tracker := timing.NewTracker(nil)
	p := New(WithTimingTracker(tracker))

	for i := 0; i < 2; i++ {
		result, err := p.Run(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, result.Timings, len(ArtifactNames()))
		for _, entry := range result.Timings {
			assert.Equal(t, 1, entry.Count, entry.Operation)
		}
		result.Close()
	}

	assert.Len(t, tracker.GetTimings(ArtifactGray), 2)
}

func TestCloseReleasesOutstandingResults(t *testing.T) {
	p := New()
	result, err := p.Run(context.Background(), writeCircles(t))
	require.NoError(t, err)

	img, ok := result.Artifact(ArtifactImage)
	require.True(t, ok)
	require.True(t, img.IsValid())

	p.Close()
	assert.False(t, img.IsValid())
	assert.EqualValues(t, 0, p.MemoryManager().GetStats().ActiveMats)

	// Closing the result afterwards is harmless.
	result.Close()
}

func TestCloseLeavesCallerManagerAlone(t *testing.T) {
	mgr := memory.NewManager(nil)
	p := New(WithMemoryManager(mgr))
	result, err := p.Run(context.Background(), writeCircles(t))
	require.NoError(t, err)
	defer result.Close()

	p.Close()
	img, ok := result.Artifact(ArtifactImage)
	require.True(t, ok)
	assert.True(t, img.IsValid())
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative canny", func(p *Params) { p.CannyLow = -1 }},
		{"cutoff too high", func(p *Params) { p.ThresholdCutoff = 300 }},
		{"max too high", func(p *Params) { p.ThresholdMax = 256 }},
		{"negative iterations", func(p *Params) { p.Morph.Iterations = -1 }},
		{"even kernel", func(p *Params) { p.Morph.KernelSize = 4 }},
		{"zero stroke", func(p *Params) { p.Style.StrokeWidth = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			assert.Error(t, params.Validate())
		})
	}
}

func TestLoadErrorUnwrap(t *testing.T) {
	err := &LoadError{Path: "x.png", Err: fs.ErrPermission}
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Contains(t, err.Error(), "x.png")
}
