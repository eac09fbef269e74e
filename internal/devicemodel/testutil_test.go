package devicemodel

import "strings"

// mockStore is a minimal in-memory ConfigurationKeyStore for the
// package's own unit tests, independent of internal/configstore so
// these tests stay free of any import cycle back through that
// package's own dependency on devicemodel.
type mockStore struct {
	entries map[string]ConfigurationKeyEntry
}

func newMockStore() *mockStore {
	return &mockStore{entries: make(map[string]ConfigurationKeyEntry)}
}

func (s *mockStore) Get(_ StationContext, keyName string) (ConfigurationKeyEntry, bool) {
	e, ok := s.entries[strings.ToLower(keyName)]
	return e, ok
}

func (s *mockStore) Add(_ StationContext, keyName, value string, opts ConfigurationKeyEntry, overwrite bool) error {
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

func (s *mockStore) SetValue(_ StationContext, keyName, value string) error {
	lower := strings.ToLower(keyName)
	entry, ok := s.entries[lower]
	if !ok {
		entry = ConfigurationKeyEntry{Visible: true, Key: keyName}
	}
	entry.Value = value
	s.entries[lower] = entry
	return nil
}

func (s *mockStore) All(_ StationContext) []ConfigurationKeyEntry {
	out := make([]ConfigurationKeyEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out
}

// mockStation is a minimal StationContext for tests: a fixed heartbeat
// and ping interval (mutable via restart hooks so side-effect tests can
// observe them), no EVSEs by default.
type mockStation struct {
	id                string
	store             ConfigurationKeyStore
	heartbeatInterval int
	wsPingInterval    int
	restartedHeartbeat []int
	restartedWSPing    []int
	evseIDs           []int
	connectorsByEVSE  map[int][]int
	availability      map[string]string
}

func newMockStation(store ConfigurationKeyStore) *mockStation {
	return &mockStation{
		id:                "CS001",
		store:             store,
		heartbeatInterval: 300,
		wsPingInterval:    60,
		connectorsByEVSE:  map[int][]int{},
		availability:      map[string]string{},
	}
}

func (s *mockStation) LogPrefix() string { return s.id }

func (s *mockStation) HeartbeatInterval() int { return s.heartbeatInterval }
func (s *mockStation) WSPingInterval() int    { return s.wsPingInterval }

func (s *mockStation) RestartHeartbeat(n int) {
	s.heartbeatInterval = n
	s.restartedHeartbeat = append(s.restartedHeartbeat, n)
}

func (s *mockStation) RestartWebSocketPing(n int) {
	s.wsPingInterval = n
	s.restartedWSPing = append(s.restartedWSPing, n)
}

func (s *mockStation) EVSEIDs() []int { return s.evseIDs }

func (s *mockStation) ConnectorIDs(evseID int) []int { return s.connectorsByEVSE[evseID] }

func (s *mockStation) Store() ConfigurationKeyStore { return s.store }

func (s *mockStation) EVSEAvailability(component Component) (string, bool) {
	key := strings.ToLower(string(component.Name)) + "/" + component.Instance
	v, ok := s.availability[key]
	return v, ok
}
