package coursesync

import (
	"sort"
	"sync"
)

// Mirror is the local key/value store course pages write progress into. Writes to
// tracked keys are announced as snapshots.
type Mirror struct {
	extractor *Extractor
	onChange  func(Snapshot)

	mu     sync.RWMutex
	values map[string]string
}

// NewMirror builds a mirror that passes snapshots of tracked writes to onChange.
func NewMirror(extractor *Extractor, onChange func(Snapshot)) *Mirror {
	if extractor == nil {
		extractor = NewExtractor(nil)
	}
	return &Mirror{extractor: extractor, onChange: onChange, values: make(map[string]string)}
}

// Set stores value under key. It reports whether a progress snapshot was emitted.
func (m *Mirror) Set(key, value string) bool {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()

	snapshot, ok := m.extractor.Extract(key, []byte(value))
	if !ok {
		return false
	}
	if m.onChange != nil {
		m.onChange(snapshot)
	}
	return true
}

// Get returns the value stored under key.
func (m *Mirror) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok
}

// Keys returns the stored keys in lexical order.
func (m *Mirror) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	m.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Current returns the snapshot of the first tracked key present in the mirror.
func (m *Mirror) Current() (Snapshot, bool) {
	for _, key := range m.Keys() {
		if !m.extractor.Tracks(key) {
			continue
		}
		value, _ := m.Get(key)
		return m.extractor.Extract(key, []byte(value))
	}
	return Snapshot{}, false
}
