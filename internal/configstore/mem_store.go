package configstore

import (
	"sort"
	"strings"
	"sync"

	"github.com/ahoi-energy/devicemodelsim/internal/devicemodel"
)

// MemStore is a map-backed ConfigurationKeyStore for tests and the
// demo scenario's unit coverage, where a Badger directory would be
// unwanted overhead.
type MemStore struct {
	mu      sync.Mutex
	entries map[string]devicemodel.ConfigurationKeyEntry
}

// NewMemStore builds an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]devicemodel.ConfigurationKeyEntry)}
}

func (s *MemStore) Get(station devicemodel.StationContext, keyName string) (devicemodel.ConfigurationKeyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[strings.ToLower(keyName)]
	return entry, ok
}

func (s *MemStore) Add(station devicemodel.StationContext, keyName, value string, opts devicemodel.ConfigurationKeyEntry, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(keyName)
	if _, exists := s.entries[lower]; exists && !overwrite {
		return nil
	}
	entry := opts
	entry.Key = keyName
	entry.Value = value
	s.entries[lower] = entry
	return nil
}

func (s *MemStore) SetValue(station devicemodel.StationContext, keyName, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lower := strings.ToLower(keyName)
	entry, ok := s.entries[lower]
	if !ok {
		entry = devicemodel.ConfigurationKeyEntry{Visible: true, Key: keyName}
	}
	entry.Value = value
	s.entries[lower] = entry
	return nil
}

func (s *MemStore) All(station devicemodel.StationContext) []devicemodel.ConfigurationKeyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]devicemodel.ConfigurationKeyEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
