package cache

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/julianstephens/hard75/internal/cache/postgres"
	"github.com/julianstephens/hard75/internal/cache/sqlite"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/utils"
)

// Backend persists raw cache values.
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Clear() error
	Keys(prefix string) ([]string, error)

	// Location returns a non-sensitive description of where values are stored.
	Location() string
}

// Cache is a JSON key/value cache over a Backend. None of its methods return
// errors: failures are logged and reads fall back to "absent".
// There is no expiry and no size bound.
type Cache struct {
	mu      sync.Mutex
	backend Backend
}

// New wraps an initialized backend.
func New(backend Backend) *Cache {
	return &Cache{backend: backend}
}

// Open selects a backend from location, initializes it and wraps it.
//
//   - "postgres://..." or "postgresql://..." uses PostgreSQL
//   - ":memory:" keeps everything in process memory
//   - "*.json" uses a single JSON file
//   - anything else is a SQLite database path
func Open(location string) (*Cache, error) {
	backend, err := NewBackend(location)
	if err != nil {
		return nil, err
	}
	if err := backend.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize cache at %s: %w", backend.Location(), err)
	}
	return New(backend), nil
}

// NewBackend returns an uninitialized backend for location.
func NewBackend(location string) (Backend, error) {
	switch {
	case location == "":
		return nil, fmt.Errorf("cache location is empty")
	case strings.HasPrefix(location, "postgres://"), strings.HasPrefix(location, "postgresql://"):
		if _, err := postgres.ValidateConnString(location); err != nil {
			return nil, err
		}
		return postgres.New(location), nil
	case location == ":memory:":
		return NewMemoryBackend(), nil
	}

	path, err := utils.ExpandPath(location)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".json") {
		return NewJSONBackend(path), nil
	}
	return sqlite.New(path), nil
}

// Location describes where the cache lives.
func (c *Cache) Location() string {
	return c.backend.Location()
}

// Close releases the backend.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Close()
}

// Get decodes the value stored under key into dst. It returns false when the
// key is absent or the stored value cannot be decoded.
func (c *Cache) Get(key string, dst interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key, dst)
}

// Has reports whether key holds a value.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok, err := c.backend.Get(key)
	return err == nil && ok
}

// Set encodes value and stores it under key.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// Remove deletes key.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Delete(key); err != nil {
		logger.Warn("Cache remove failed", "key", key, "error", err)
	}
}

// Clear deletes every key.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.backend.Clear(); err != nil {
		logger.Warn("Cache clear failed", "error", err)
	}
}

// Keys lists stored keys starting with prefix, sorted.
func (c *Cache) Keys(prefix string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys, err := c.backend.Keys(prefix)
	if err != nil {
		logger.Warn("Cache key listing failed", "prefix", prefix, "error", err)
		return nil
	}
	return keys
}

func (c *Cache) getLocked(key string, dst interface{}) bool {
	raw, ok, err := c.backend.Get(key)
	if err != nil {
		logger.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn("Cache value is not decodable", "key", key, "error", err)
		return false
	}
	return true
}

func (c *Cache) setLocked(key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Cache value is not encodable", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(key, raw); err != nil {
		logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

// Update runs a read-modify-write of key under the cache lock. fn receives
// the current value (zero value when absent) and whether it existed, and
// returns the value to store.
func Update[T any](c *Cache, key string, fn func(current T, exists bool) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()

	var current T
	exists := c.getLocked(key, &current)
	next := fn(current, exists)
	c.setLocked(key, next)
	return next
}

// Load is a typed Get.
func Load[T any](c *Cache, key string) (T, bool) {
	var v T
	ok := c.Get(key, &v)
	return v, ok
}
