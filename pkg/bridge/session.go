// Package bridge holds the shared state of one repeater conversation. The
// session is created at startup and lives for the whole process; the P2P
// machine is the only writer of the registration flag, the RDAC machine is
// the only writer of the identity and radio fields.
package bridge

import (
	"sync"
	"time"

	"github.com/dmrhub/hytera-bridge/pkg/hytera"
)

// Endpoint identifies one of the three repeater-facing UDP listeners
type Endpoint int

const (
	EndpointP2P Endpoint = iota
	EndpointRDAC
	EndpointDMR
)

// String returns the endpoint name
func (e Endpoint) String() string {
	switch e {
	case EndpointP2P:
		return "p2p"
	case EndpointRDAC:
		return "rdac"
	case EndpointDMR:
		return "dmr"
	default:
		return "unknown"
	}
}

// endpointStats tracks per-endpoint traffic counters
type endpointStats struct {
	PacketsReceived uint64
	BytesReceived   uint64
	PacketsSent     uint64
	BytesSent       uint64
}

// Session is the mutable shared state for one repeater conversation
type Session struct {
	mu sync.RWMutex

	// Negotiated service ports, fixed at creation
	p2pPort  int
	rdacPort int
	dmrPort  int

	registered   bool
	registeredAt time.Time

	repeaterID   uint32
	callsign     string
	firmware     string
	hardware     string
	serialNumber string
	repeaterMode byte
	txFreq       uint32
	rxFreq       uint32

	// Optional fields filled by SNMP discovery
	snmpName     string
	snmpLocation string

	lastHeard time.Time
	stats     [3]endpointStats
}

// Snapshot is an immutable copy of the session for diagnostics consumers
type Snapshot struct {
	Registered   bool      `json:"registered"`
	RegisteredAt time.Time `json:"registered_at,omitzero"`
	RepeaterID   uint32    `json:"repeater_id"`
	Callsign     string    `json:"callsign"`
	Firmware     string    `json:"firmware"`
	Hardware     string    `json:"hardware"`
	SerialNumber string    `json:"serial_number"`
	RepeaterMode byte      `json:"repeater_mode"`
	TXFreq       uint32    `json:"tx_freq"`
	RXFreq       uint32    `json:"rx_freq"`
	SNMPName     string    `json:"snmp_name,omitempty"`
	SNMPLocation string    `json:"snmp_location,omitempty"`
	LastHeard    time.Time `json:"last_heard,omitzero"`
}

// NewSession creates a session bound to the three configured service ports
func NewSession(p2pPort, rdacPort, dmrPort int) *Session {
	return &Session{
		p2pPort:  p2pPort,
		rdacPort: rdacPort,
		dmrPort:  dmrPort,
	}
}

// P2PPort returns the configured control port
func (s *Session) P2PPort() int { return s.p2pPort }

// RDACPort returns the configured RDAC port
func (s *Session) RDACPort() int { return s.rdacPort }

// DMRPort returns the configured DMR traffic port
func (s *Session) DMRPort() int { return s.dmrPort }

// SetRegistered marks the repeater registration state. Written only by the
// P2P machine.
func (s *Session) SetRegistered(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = v
	if v {
		s.registeredAt = time.Now()
	}
}

// IsRegistered reports whether the repeater has completed registration
func (s *Session) IsRegistered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered
}

// SetRepeaterID records the id extracted from the RDAC handshake
func (s *Session) SetRepeaterID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeaterID = id
}

// RepeaterID returns the extracted repeater id, 0 before extraction
func (s *Session) RepeaterID() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repeaterID
}

// SetIdentity records the identity strings extracted at RDAC step 6
func (s *Session) SetIdentity(id hytera.RadioIdentity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callsign = id.Callsign
	s.firmware = id.Firmware
	s.hardware = id.Hardware
	s.serialNumber = id.SerialNumber
}

// SetRadioConfig records the mode and frequencies extracted at RDAC step 10
func (s *Session) SetRadioConfig(cfg hytera.RadioConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repeaterMode = cfg.Mode
	s.txFreq = cfg.TXFreq
	s.rxFreq = cfg.RXFreq
}

// SetSNMPInfo records discovery results from the SNMP walker
func (s *Session) SetSNMPInfo(name, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snmpName = name
	s.snmpLocation = location
}

// Callsign returns the extracted callsign
func (s *Session) Callsign() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.callsign
}

// RecordInbound updates traffic counters for a received datagram
func (s *Session) RecordInbound(e Endpoint, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[e].PacketsReceived++
	s.stats[e].BytesReceived += uint64(size)
	s.lastHeard = time.Now()
}

// RecordOutbound updates traffic counters for a sent datagram
func (s *Session) RecordOutbound(e Endpoint, size int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats[e].PacketsSent++
	s.stats[e].BytesSent += uint64(size)
}

// Stats returns the traffic counters for one endpoint
func (s *Session) Stats(e Endpoint) (packetsRx, bytesRx, packetsTx, bytesTx uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats[e]
	return st.PacketsReceived, st.BytesReceived, st.PacketsSent, st.BytesSent
}

// Snapshot returns a copy of the session state
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Registered:   s.registered,
		RegisteredAt: s.registeredAt,
		RepeaterID:   s.repeaterID,
		Callsign:     s.callsign,
		Firmware:     s.firmware,
		Hardware:     s.hardware,
		SerialNumber: s.serialNumber,
		RepeaterMode: s.repeaterMode,
		TXFreq:       s.txFreq,
		RXFreq:       s.rxFreq,
		SNMPName:     s.snmpName,
		SNMPLocation: s.snmpLocation,
		LastHeard:    s.lastHeard,
	}
}
