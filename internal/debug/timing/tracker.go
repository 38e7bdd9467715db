package timing

import (
	"context"
	"sync"
	"time"

	"contour-counter/internal/logger"
)

type timingKey struct{}

type TimingInfo struct {
	Operation string
	StartTime time.Time
}

// Entry is the accumulated timing of one operation.
type Entry struct {
	Operation string
	Count     int
	Total     time.Duration
}

type Tracker struct {
	timings map[string][]time.Duration
	order   []string
	mu      sync.RWMutex
	logger  logger.Logger
	parent  *Tracker
}

func NewTracker(log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNop()
	}
	return &Tracker{
		timings: make(map[string][]time.Duration),
		logger:  log,
	}
}

// Fork returns an empty tracker whose records are also added to tt.
// A run times itself on a fork so its summary covers only that run.
func (tt *Tracker) Fork() *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
		logger:  tt.logger,
		parent:  tt,
	}
}

// StartTiming returns a child of parent carrying the operation start time.
func (tt *Tracker) StartTiming(parent context.Context, operation string) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	return context.WithValue(parent, timingKey{}, TimingInfo{
		Operation: operation,
		StartTime: time.Now(),
	})
}

// EndTiming records the elapsed time for the operation started on ctx and
// returns it. Contexts that did not come from StartTiming are ignored.
func (tt *Tracker) EndTiming(ctx context.Context) time.Duration {
	timingInfo, ok := ctx.Value(timingKey{}).(TimingInfo)
	if !ok {
		return 0
	}

	duration := time.Since(timingInfo.StartTime)
	tt.Record(timingInfo.Operation, duration)
	return duration
}

// Record adds a measured duration for operation.
func (tt *Tracker) Record(operation string, duration time.Duration) {
	tt.add(operation, duration)

	tt.logger.Debug("timing", "operation completed", map[string]interface{}{
		"operation":   operation,
		"duration_ms": float64(duration.Microseconds()) / 1000,
	})
}

func (tt *Tracker) add(operation string, duration time.Duration) {
	tt.mu.Lock()
	if _, seen := tt.timings[operation]; !seen {
		tt.order = append(tt.order, operation)
	}
	tt.timings[operation] = append(tt.timings[operation], duration)
	tt.mu.Unlock()

	if tt.parent != nil {
		tt.parent.add(operation, duration)
	}
}

func (tt *Tracker) GetTimings(operation string) []time.Duration {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	timings := tt.timings[operation]
	if timings == nil {
		return nil
	}

	result := make([]time.Duration, len(timings))
	copy(result, timings)
	return result
}

// Summary lists every operation in the order it was first recorded.
func (tt *Tracker) Summary() []Entry {
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	entries := make([]Entry, 0, len(tt.order))
	for _, operation := range tt.order {
		entry := Entry{Operation: operation}
		for _, d := range tt.timings[operation] {
			entry.Count++
			entry.Total += d
		}
		entries = append(entries, entry)
	}
	return entries
}
