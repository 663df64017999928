package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type jsonFile struct {
	Version int                        `json:"version"`
	Entries map[string]json.RawMessage `json:"entries"`
}

// JSONBackend stores the whole cache in one JSON file, rewritten on every
// mutation.
type JSONBackend struct {
	path string
	file *jsonFile
}

func NewJSONBackend(path string) *JSONBackend {
	return &JSONBackend{path: path}
}

func (s *JSONBackend) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read cache file: %w", err)
		}
		s.file = &jsonFile{Version: 1, Entries: make(map[string]json.RawMessage)}
		return s.save()
	}

	s.file = &jsonFile{}
	if err := json.Unmarshal(data, s.file); err != nil {
		return fmt.Errorf("failed to parse cache file: %w", err)
	}
	if s.file.Entries == nil {
		s.file.Entries = make(map[string]json.RawMessage)
	}
	return nil
}

func (s *JSONBackend) Close() error {
	return nil
}

func (s *JSONBackend) save() error {
	data, err := json.MarshalIndent(s.file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache: %w", err)
	}

	// write-then-rename so a crash never leaves a truncated file behind
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

func (s *JSONBackend) loaded() error {
	if s.file == nil {
		return fmt.Errorf("cache not loaded")
	}
	return nil
}

func (s *JSONBackend) Get(key string) ([]byte, bool, error) {
	if err := s.loaded(); err != nil {
		return nil, false, err
	}
	v, ok := s.file.Entries[key]
	return v, ok, nil
}

func (s *JSONBackend) Set(key string, value []byte) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if !json.Valid(value) {
		return fmt.Errorf("value for %s is not valid JSON", key)
	}
	s.file.Entries[key] = append(json.RawMessage(nil), value...)
	return s.save()
}

func (s *JSONBackend) Delete(key string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.file.Entries[key]; !ok {
		return nil
	}
	delete(s.file.Entries, key)
	return s.save()
}

func (s *JSONBackend) Clear() error {
	if err := s.loaded(); err != nil {
		return err
	}
	s.file.Entries = make(map[string]json.RawMessage)
	return s.save()
}

func (s *JSONBackend) Keys(prefix string) ([]string, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var keys []string
	for k := range s.file.Entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *JSONBackend) Location() string {
	return s.path
}
