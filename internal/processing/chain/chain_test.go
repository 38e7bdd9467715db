package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contour-counter/internal/debug/timing"
)

type trace struct {
	visited []string
}

func record(name string) Step[*trace] {
	return NewStep(name, func(_ context.Context, s *trace) error {
		s.visited = append(s.visited, name)
		return nil
	})
}

func TestExecuteRunsInOrder(t *testing.T) {
	c := NewProcessingChain([]Step[*trace]{record("a"), record("b"), record("c")})
	state := &trace{}

	require.NoError(t, c.Execute(context.Background(), state))
	assert.Equal(t, []string{"a", "b", "c"}, state.visited)
}

func TestExecuteStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	c := NewProcessingChain([]Step[*trace]{
		record("a"),
		NewStep("broken", func(context.Context, *trace) error { return boom }),
		record("c"),
	})
	state := &trace{}

	err := c.Execute(context.Background(), state)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "step broken failed")
	assert.Equal(t, []string{"a"}, state.visited)
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewProcessingChain([]Step[*trace]{
		record("a"),
		NewStep("cancel", func(context.Context, *trace) error { cancel(); return nil }),
		record("c"),
	})
	state := &trace{}

	err := c.Execute(ctx, state)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a"}, state.visited)
}

func TestExecuteTimesEachStep(t *testing.T) {
	tracker := timing.NewTracker(nil)
	c := NewProcessingChain([]Step[*trace]{record("gray"), record("edged")}).WithTimer(tracker)

	require.NoError(t, c.Execute(context.Background(), &trace{}))

	summary := tracker.Summary()
	require.Len(t, summary, 2)
	assert.Equal(t, "gray", summary[0].Operation)
	assert.Equal(t, "edged", summary[1].Operation)
}
