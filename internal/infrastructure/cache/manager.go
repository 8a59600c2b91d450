package cache

import (
	"sync"

	"go.uber.org/zap"
)

// Slot is the invalidation surface every cached view exposes
type Slot interface {
	Name() string
	Invalidate()
}

// Manager owns every view-cache slot in the process. It is created once,
// injected into the query services and into the write path, and replaces any
// free-floating global invalidation hook: invalidation is a method call on
// this shared instance.
type Manager struct {
	mu     sync.Mutex
	slots  []Slot
	logger *zap.Logger
}

// NewManager creates an empty cache manager
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{logger: logger}
}

// Register adds a slot to the manager
func (m *Manager) Register(s Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots = append(m.slots, s)
}

// InvalidateAll marks every registered slot stale. Idempotent and safe to
// call concurrently; each slot guards its own state.
func (m *Manager) InvalidateAll() {
	m.mu.Lock()
	slots := make([]Slot, len(m.slots))
	copy(slots, m.slots)
	m.mu.Unlock()

	for _, s := range slots {
		s.Invalidate()
	}
	m.logger.Debug("Invalidated all view caches", zap.Int("slots", len(slots)))
}

// Count returns the number of registered slots
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}
