package cache

import (
	"sort"
	"strings"
)

// MemoryBackend keeps values in a map. It is not safe for concurrent use on
// its own; Cache serializes access.
type MemoryBackend struct {
	values map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (m *MemoryBackend) Init() error  { return nil }
func (m *MemoryBackend) Close() error { return nil }

func (m *MemoryBackend) Get(key string) ([]byte, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(key string, value []byte) error {
	m.values[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	delete(m.values, key)
	return nil
}

func (m *MemoryBackend) Clear() error {
	m.values = make(map[string][]byte)
	return nil
}

func (m *MemoryBackend) Keys(prefix string) ([]string, error) {
	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) Location() string { return ":memory:" }
