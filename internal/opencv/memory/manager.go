package memory

import (
	"sync"
	"time"

	"region-obliterator/internal/logger"
)

// Manager accounts for native Mat memory. It implements safe.MemoryTracker.
type Manager struct {
	allocations map[uint64]*AllocationRecord
	mu          sync.RWMutex
	stats       Stats
	logger      logger.Logger
}

type AllocationRecord struct {
	Tag       string
	CreatedAt time.Time
	Size      int64
}

type Stats struct {
	TotalAllocated int64 `json:"total_allocated_bytes"`
	TotalReleased  int64 `json:"total_released_bytes"`
	ActiveMats     int64 `json:"active_mats"`
	PeakActive     int64 `json:"peak_active_mats"`
}

// InUse is the number of bytes still held by live Mats.
func (s Stats) InUse() int64 {
	return s.TotalAllocated - s.TotalReleased
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

func (m *Manager) TrackAllocation(id uint64, size int64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[id] = &AllocationRecord{
		Tag:       tag,
		CreatedAt: time.Now(),
		Size:      size,
	}
	m.stats.TotalAllocated += size
	m.stats.ActiveMats++
	if m.stats.ActiveMats > m.stats.PeakActive {
		m.stats.PeakActive = m.stats.ActiveMats
	}
}

func (m *Manager) TrackDeallocation(id uint64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.allocations[id]
	if !exists {
		m.logger.Warning("MemoryManager", "release of untracked Mat", map[string]interface{}{
			"id":  id,
			"tag": tag,
		})
		return
	}

	delete(m.allocations, id)
	m.stats.TotalReleased += record.Size
	m.stats.ActiveMats--
}

func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.stats
}

// Outstanding lists the tags of Mats that are still alive.
func (m *Manager) Outstanding() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]string, 0, len(m.allocations))
	for _, record := range m.allocations {
		tags = append(tags, record.Tag)
	}
	return tags
}

// Shutdown reports Mats that were never released.
func (m *Manager) Shutdown() {
	stats := m.GetStats()
	if stats.ActiveMats > 0 {
		m.logger.Warning("MemoryManager", "Mats still alive at shutdown", map[string]interface{}{
			"active_mats":  stats.ActiveMats,
			"bytes_in_use": stats.InUse(),
			"tags":         m.Outstanding(),
		})
		return
	}
	m.logger.Debug("MemoryManager", "all Mats released", map[string]interface{}{
		"total_allocated_bytes": stats.TotalAllocated,
		"peak_active_mats":      stats.PeakActive,
	})
}
