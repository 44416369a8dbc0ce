package metrics

import (
	"sync"
)

// Collector collects bridge metrics
type Collector struct {
	mu sync.RWMutex

	// Classified datagram counts by protocol kind
	kindCounts map[string]uint64

	// Registration metrics
	registered    bool
	registrations uint64

	// Handshake metrics
	handshakeResets      uint64
	handshakeCompletions uint64

	// Upstream metrics
	upstreamConnected bool
	upstreamLogins    uint64

	// Discovery metrics
	snmpWalks    uint64
	snmpFailures uint64
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		kindCounts: make(map[string]uint64),
	}
}

// KindObserved records a classified datagram of the given protocol kind
func (c *Collector) KindObserved(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kindCounts[kind]++
}

// RepeaterRegistered records a registration exchange
func (c *Collector) RepeaterRegistered() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registrations++
	c.registered = true
}

// RepeaterDisconnected records the repeater going away
func (c *Collector) RepeaterDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.registered = false
}

// HandshakeReset records an identification restart
func (c *Collector) HandshakeReset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handshakeResets++
}

// HandshakeCompleted records a finished identification sequence
func (c *Collector) HandshakeCompleted() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handshakeCompletions++
}

// UpstreamConnected records a successful master login
func (c *Collector) UpstreamConnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.upstreamLogins++
	c.upstreamConnected = true
}

// UpstreamDisconnected records the master link going down
func (c *Collector) UpstreamDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.upstreamConnected = false
}

// SNMPWalk records a discovery attempt and its outcome
func (c *Collector) SNMPWalk(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snmpWalks++
	if !ok {
		c.snmpFailures++
	}
}

// Reset resets all metrics (useful for testing)
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kindCounts = make(map[string]uint64)
	c.registered = false
	c.upstreamConnected = false
	c.registrations = 0
	c.handshakeResets = 0
	c.handshakeCompletions = 0
	c.upstreamLogins = 0
	c.snmpWalks = 0
	c.snmpFailures = 0
}

// Getters for metrics

// GetKindCounts returns a copy of the per-kind datagram counts
func (c *Collector) GetKindCounts() map[string]uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]uint64, len(c.kindCounts))
	for k, v := range c.kindCounts {
		counts[k] = v
	}
	return counts
}

// IsRegistered returns the registration gauge
func (c *Collector) IsRegistered() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registered
}

// GetRegistrations returns total registration exchanges
func (c *Collector) GetRegistrations() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registrations
}

// GetHandshakeResets returns total identification restarts
func (c *Collector) GetHandshakeResets() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handshakeResets
}

// GetHandshakeCompletions returns total finished identification sequences
func (c *Collector) GetHandshakeCompletions() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handshakeCompletions
}

// IsUpstreamConnected returns the master link gauge
func (c *Collector) IsUpstreamConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.upstreamConnected
}

// GetUpstreamLogins returns total successful master logins
func (c *Collector) GetUpstreamLogins() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.upstreamLogins
}

// GetSNMPWalks returns total discovery attempts and failures
func (c *Collector) GetSNMPWalks() (walks, failures uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snmpWalks, c.snmpFailures
}
