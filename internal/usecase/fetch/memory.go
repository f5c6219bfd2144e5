package fetch

import "sync"

// methodMemory remembers which strategy last produced items for each source
// handle. It is advisory only: losing it changes attempt order, never
// correctness.
type methodMemory struct {
	mu   sync.RWMutex
	last map[string]string // handle -> strategy name
}

func newMethodMemory() *methodMemory {
	return &methodMemory{last: make(map[string]string)}
}

func (m *methodMemory) get(handle string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.last[handle]
	return name, ok
}

func (m *methodMemory) set(handle, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[handle] = name
}
