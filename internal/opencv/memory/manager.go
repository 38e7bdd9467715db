package memory

import (
	"sync"
	"time"

	"contour-counter/internal/logger"
	"contour-counter/internal/opencv/safe"
)

// Manager records every Mat adopted during a pipeline run so the run can
// release all of them at once.
type Manager struct {
	allocations map[uint64]*AllocationRecord
	mu          sync.RWMutex
	stats       Stats
	logger      logger.Logger
}

type AllocationRecord struct {
	Mat       *safe.Mat
	Tag       string
	CreatedAt time.Time
	Size      int64
}

type Stats struct {
	TotalAllocated int64
	TotalReleased  int64
	ActiveMats     int64
	PeakBytes      int64
}

func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		allocations: make(map[uint64]*AllocationRecord),
		logger:      log,
	}
}

func (m *Manager) TrackAllocation(mat *safe.Mat, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[mat.ID()] = &AllocationRecord{
		Mat:       mat,
		Tag:       mat.Tag(),
		CreatedAt: time.Now(),
		Size:      size,
	}
	m.stats.TotalAllocated += size
	m.stats.ActiveMats++
	if live := m.stats.TotalAllocated - m.stats.TotalReleased; live > m.stats.PeakBytes {
		m.stats.PeakBytes = live
	}
}

// TrackDeallocation is called from safe.Mat.Close with the Mat locked, so
// it must not call back into the Mat beyond ID().
func (m *Manager) TrackDeallocation(mat *safe.Mat) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.allocations[mat.ID()]
	if !exists {
		return
	}

	delete(m.allocations, mat.ID())
	m.stats.TotalReleased += record.Size
	m.stats.ActiveMats--
}

func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// Active lists the tags of Mats that are still open.
func (m *Manager) Active() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]string, 0, len(m.allocations))
	for _, record := range m.allocations {
		tags = append(tags, record.Tag)
	}
	return tags
}

// Cleanup closes every Mat that is still open.
func (m *Manager) Cleanup() {
	m.mu.RLock()
	open := make([]*safe.Mat, 0, len(m.allocations))
	for _, record := range m.allocations {
		open = append(open, record.Mat)
	}
	m.mu.RUnlock()

	// Close re-enters TrackDeallocation, so the lock must be released first.
	for _, mat := range open {
		mat.Close()
	}

	stats := m.GetStats()
	m.logger.Debug("MemoryManager", "released Mats", map[string]interface{}{
		"closed":      len(open),
		"peak_bytes":  stats.PeakBytes,
		"active_mats": stats.ActiveMats,
	})
}
