// Package station provides the running Station Context the device
// model package reads and mutates: EVSE/Connector topology, the
// heartbeat and WebSocket-ping loops a variable write can restart, and
// the station's ConfigurationKeyStore handle.
package station

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ahoi-energy/devicemodelsim/internal/devicemodel"
)

// Connector is one physical connector of an EVSE.
type Connector struct {
	ID            int
	ConnectorType string

	mu           sync.Mutex
	availability string
}

func newConnector(id int, connectorType string) *Connector {
	return &Connector{ID: id, ConnectorType: connectorType, availability: "Operative"}
}

// Availability returns the connector's current AvailabilityState.
func (c *Connector) Availability() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.availability
}

// SetAvailability sets the connector's current AvailabilityState.
func (c *Connector) SetAvailability(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.availability = state
}

// EVSE is one Electric Vehicle Supply Equipment unit, owning one or
// more Connectors.
type EVSE struct {
	ID         int
	Connectors []*Connector

	mu           sync.Mutex
	availability string
}

func newEVSE(id int, connectorCount int) *EVSE {
	connectors := make([]*Connector, connectorCount)
	for i := range connectors {
		connectors[i] = newConnector(i+1, "cCCS1")
	}
	return &EVSE{ID: id, Connectors: connectors, availability: "Operative"}
}

// Availability returns the EVSE's current AvailabilityState.
func (e *EVSE) Availability() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.availability
}

// SetAvailability sets the EVSE's current AvailabilityState.
func (e *EVSE) SetAvailability(state string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.availability = state
}

func (e *EVSE) connector(id int) (*Connector, bool) {
	for _, c := range e.Connectors {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Station is the devicemodel.StationContext implementation for a
// single simulated charging station.
type Station struct {
	id    string
	store devicemodel.ConfigurationKeyStore
	evses []*EVSE

	mu                sync.Mutex
	heartbeatInterval int
	wsPingInterval    int
	heartbeatStop     chan struct{}
	wsPingStop        chan struct{}

	log *log.Entry
}

// New builds a Station with evseCount EVSEs, each with connectorCount
// connectors, backed by store.
func New(id string, store devicemodel.ConfigurationKeyStore, evseCount, connectorCount int) *Station {
	evses := make([]*EVSE, evseCount)
	for i := range evses {
		evses[i] = newEVSE(i+1, connectorCount)
	}
	return &Station{
		id:                id,
		store:             store,
		evses:             evses,
		heartbeatInterval: 300,
		wsPingInterval:    60,
		log:               log.WithField("station", id),
	}
}

func (s *Station) LogPrefix() string { return s.id }

func (s *Station) HeartbeatInterval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heartbeatInterval
}

func (s *Station) WSPingInterval() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wsPingInterval
}

func (s *Station) Store() devicemodel.ConfigurationKeyStore { return s.store }

func (s *Station) EVSEIDs() []int {
	ids := make([]int, len(s.evses))
	for i, e := range s.evses {
		ids[i] = e.ID
	}
	return ids
}

func (s *Station) ConnectorIDs(evseID int) []int {
	evse, ok := s.evse(evseID)
	if !ok {
		return nil
	}
	ids := make([]int, len(evse.Connectors))
	for i, c := range evse.Connectors {
		ids[i] = c.ID
	}
	return ids
}

func (s *Station) evse(id int) (*EVSE, bool) {
	for _, e := range s.evses {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// EVSEAvailability implements the supplemented topology fallback
// consumed by the Value Resolver (§4.3 step 1b).
func (s *Station) EVSEAvailability(component devicemodel.Component) (string, bool) {
	switch component.Name {
	case devicemodel.ComponentEVSE:
		id, err := strconv.Atoi(component.Instance)
		if err != nil {
			return "", false
		}
		evse, ok := s.evse(id)
		if !ok {
			return "", false
		}
		return evse.Availability(), true
	case devicemodel.ComponentConnector:
		evseID, connID, ok := s.splitConnectorInstance(component.Instance)
		if !ok {
			return "", false
		}
		evse, ok := s.evse(evseID)
		if !ok {
			return "", false
		}
		conn, ok := evse.connector(connID)
		if !ok {
			return "", false
		}
		return conn.Availability(), true
	default:
		return "", false
	}
}

// splitConnectorInstance resolves a bare connector instance ("2")
// against the station's single-EVSE demo topology when there is
// exactly one EVSE. With more than one EVSE a bare connector instance
// does not resolve (ok is false).
func (s *Station) splitConnectorInstance(instance string) (evseID, connectorID int, ok bool) {
	id, err := strconv.Atoi(instance)
	if err != nil {
		return 0, 0, false
	}
	if len(s.evses) == 1 {
		return s.evses[0].ID, id, true
	}
	return 0, 0, false
}

// RestartHeartbeat stops any running heartbeat loop and starts a new
// one at intervalSeconds, the explicit side-effect §9 requires of a
// HeartbeatInterval write. Grounded on the teacher's own
// stopC-channel heartbeat goroutine (main.go).
func (s *Station) RestartHeartbeat(intervalSeconds int) {
	s.mu.Lock()
	if s.heartbeatStop != nil {
		close(s.heartbeatStop)
	}
	stop := make(chan struct{})
	s.heartbeatStop = stop
	s.heartbeatInterval = intervalSeconds
	interval := intervalSeconds
	s.mu.Unlock()

	s.log.WithField("interval_s", interval).Debug("heartbeat loop restarted")

	go func() {
		ticker := time.NewTicker(time.Duration(interval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.log.Debug("heartbeat tick")
			}
		}
	}()
}

// RestartWebSocketPing is RestartHeartbeat's counterpart for the
// WebSocket ping loop.
func (s *Station) RestartWebSocketPing(intervalSeconds int) {
	s.mu.Lock()
	if s.wsPingStop != nil {
		close(s.wsPingStop)
	}
	stop := make(chan struct{})
	s.wsPingStop = stop
	s.wsPingInterval = intervalSeconds
	interval := intervalSeconds
	s.mu.Unlock()

	s.log.WithField("interval_s", interval).Debug("websocket ping loop restarted")

	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Duration(interval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.log.Debug("websocket ping tick")
			}
		}
	}()
}

// Stop tears down any running loops, used on station shutdown.
func (s *Station) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.heartbeatStop != nil {
		close(s.heartbeatStop)
		s.heartbeatStop = nil
	}
	if s.wsPingStop != nil {
		close(s.wsPingStop)
		s.wsPingStop = nil
	}
}

// Describe renders a one-line topology summary.
func (s *Station) Describe() string {
	return fmt.Sprintf("%s: %d EVSE(s)", s.id, len(s.evses))
}
