package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"contour-counter/internal/opencv/safe"
)

func TestManagerTracksAndCleansUp(t *testing.T) {
	mgr := NewManager(nil)

	a, err := safe.NewZeroMat(10, 10, gocv.MatTypeCV8UC1, mgr, "a")
	require.NoError(t, err)
	b, err := safe.NewZeroMat(10, 10, gocv.MatTypeCV8UC3, mgr, "b")
	require.NoError(t, err)

	stats := mgr.GetStats()
	assert.Equal(t, int64(2), stats.ActiveMats)
	assert.Equal(t, int64(400), stats.TotalAllocated)
	assert.ElementsMatch(t, []string{"a", "b"}, mgr.Active())

	a.Close()
	stats = mgr.GetStats()
	assert.Equal(t, int64(1), stats.ActiveMats)
	assert.Equal(t, int64(100), stats.TotalReleased)

	mgr.Cleanup()
	assert.False(t, b.IsValid())
	assert.Empty(t, mgr.Active())
	stats = mgr.GetStats()
	assert.Zero(t, stats.ActiveMats)
	assert.Equal(t, int64(400), stats.PeakBytes)
}

func TestManagerIgnoresUnknownRelease(t *testing.T) {
	mgr := NewManager(nil)
	m, err := safe.NewMat(2, 2, gocv.MatTypeCV8UC1)
	require.NoError(t, err)

	mgr.TrackDeallocation(m)
	m.Close()
	assert.Zero(t, mgr.GetStats().TotalReleased)
}
