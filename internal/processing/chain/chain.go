package chain

import (
	"context"
	"fmt"
	"time"
)

// Step is one stage of a chain. Steps mutate the shared state S, usually a
// struct collecting the artifacts produced so far.
type Step[S any] interface {
	Apply(ctx context.Context, state S) error
	Name() string
}

// Timer is satisfied by timing.Tracker.
type Timer interface {
	StartTiming(parent context.Context, operation string) context.Context
	EndTiming(ctx context.Context) time.Duration
}

type funcStep[S any] struct {
	name  string
	apply func(ctx context.Context, state S) error
}

func (s funcStep[S]) Name() string { return s.name }

func (s funcStep[S]) Apply(ctx context.Context, state S) error { return s.apply(ctx, state) }

// NewStep wraps a function as a named step.
func NewStep[S any](name string, apply func(ctx context.Context, state S) error) Step[S] {
	return funcStep[S]{name: name, apply: apply}
}

type ProcessingChain[S any] struct {
	steps []Step[S]
	timer Timer
}

func NewProcessingChain[S any](steps []Step[S]) *ProcessingChain[S] {
	return &ProcessingChain[S]{
		steps: steps,
	}
}

// WithTimer times every step under its name.
func (pc *ProcessingChain[S]) WithTimer(timer Timer) *ProcessingChain[S] {
	pc.timer = timer
	return pc
}

// Execute runs the steps in order and stops at the first error or when ctx
// is done. Cleanup of whatever the state holds is the caller's job.
func (pc *ProcessingChain[S]) Execute(ctx context.Context, state S) error {
	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			return fmt.Errorf("chain stopped before %s: %w", step.Name(), ctx.Err())
		default:
		}

		stepCtx := ctx
		if pc.timer != nil {
			stepCtx = pc.timer.StartTiming(ctx, step.Name())
		}

		err := step.Apply(stepCtx, state)

		if pc.timer != nil {
			pc.timer.EndTiming(stepCtx)
		}
		if err != nil {
			return fmt.Errorf("step %s failed: %w", step.Name(), err)
		}
	}

	return nil
}
