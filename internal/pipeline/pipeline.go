package pipeline

import (
	"context"
	"fmt"

	"contour-counter/internal/debug/timing"
	"contour-counter/internal/logger"
	"contour-counter/internal/opencv/memory"
	"contour-counter/internal/processing/annotate"
	"contour-counter/internal/processing/chain"

	"github.com/google/uuid"
)

type Pipeline struct {
	params  Params
	logger  logger.Logger
	timing  *timing.Tracker
	memory  *memory.Manager
	ownsMem bool
}

type Option func(*Pipeline)

func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.logger = log
		}
	}
}

func WithParams(params Params) Option {
	return func(p *Pipeline) { p.params = params }
}

// WithTimingTracker collects the stage timings of every run into tracker.
// Result.Timings still covers only its own run.
func WithTimingTracker(tracker *timing.Tracker) Option {
	return func(p *Pipeline) { p.timing = tracker }
}

func WithMemoryManager(manager *memory.Manager) Option {
	return func(p *Pipeline) { p.memory = manager }
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		params: DefaultParams(),
		logger: logger.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.memory == nil {
		p.memory = memory.NewManager(p.logger)
		p.ownsMem = true
	}
	return p
}

func (p *Pipeline) Params() Params {
	return p.params
}

func (p *Pipeline) MemoryManager() *memory.Manager {
	return p.memory
}

// Run executes every stage on the image at path. On error nothing produced
// so far survives; on success the caller owns the Result and must Close it.
func (p *Pipeline) Run(ctx context.Context, path string) (*Result, error) {
	if err := p.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	runID := uuid.NewString()
	log := p.logger
	if adapter, ok := log.(*logger.ZerologAdapter); ok {
		log = adapter.With("run_id", runID)
	}

	tracker := timing.NewTracker(log)
	if p.timing != nil {
		tracker = p.timing.Fork()
	}

	state := &runState{
		path:    path,
		params:  p.params,
		tracker: p.memory,
		logger:  log,
		loader:  &imageLoader{tracker: p.memory, logger: log},
	}

	log.Info("Pipeline", "run started", map[string]interface{}{
		"run_id": runID,
		"path":   path,
	})

	steps := chain.NewProcessingChain(buildSteps()).WithTimer(tracker)
	if err := steps.Execute(ctx, state); err != nil {
		state.release()
		log.Debug("Pipeline", "run aborted, artifacts released", map[string]interface{}{
			"run_id": runID,
			"path":   path,
		})
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		SourcePath: path,
		Contours:   state.contours,
		Label:      annotate.Label(state.contours.Len()),
		Timings:    tracker.Summary(),
		artifacts:  state.artifacts,
	}

	stats := p.memory.GetStats()
	log.Info("Pipeline", "run completed", map[string]interface{}{
		"run_id":      runID,
		"contours":    result.Contours.Len(),
		"artifacts":   len(result.artifacts),
		"active_mats": stats.ActiveMats,
		"peak_bytes":  stats.PeakBytes,
	})

	return result, nil
}

// Close releases any Mat still tracked by a manager the pipeline created,
// including the artifacts of Results the caller has not closed yet. Those
// Results must not be used afterwards. With WithMemoryManager the caller
// owns cleanup and Close does nothing.
func (p *Pipeline) Close() {
	if p.ownsMem {
		p.memory.Cleanup()
	}
}
