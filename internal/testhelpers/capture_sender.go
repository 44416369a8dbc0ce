package testhelpers

import (
	"net"
	"sync"
)

// CaptureSender records outbound datagrams instead of writing to a socket
type CaptureSender struct {
	mu      sync.RWMutex
	packets []CapturedPacket
	err     error
}

// CapturedPacket is one recorded datagram
type CapturedPacket struct {
	To   *net.UDPAddr
	Data []byte
}

// NewCaptureSender creates an empty capture sender
func NewCaptureSender() *CaptureSender {
	return &CaptureSender{
		packets: make([]CapturedPacket, 0),
	}
}

// SendTo records a copy of the datagram
func (c *CaptureSender) SendTo(data []byte, addr *net.UDPAddr) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}

	packet := CapturedPacket{
		To:   addr,
		Data: make([]byte, len(data)),
	}
	copy(packet.Data, data)

	c.packets = append(c.packets, packet)
	return nil
}

// FailWith makes every subsequent send return err
func (c *CaptureSender) FailWith(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Packets returns a copy of all recorded datagrams
func (c *CaptureSender) Packets() []CapturedPacket {
	c.mu.RLock()
	defer c.mu.RUnlock()

	packets := make([]CapturedPacket, len(c.packets))
	copy(packets, c.packets)
	return packets
}

// Count returns the number of recorded datagrams
func (c *CaptureSender) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.packets)
}

// Reset drops all recorded datagrams
func (c *CaptureSender) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.packets = c.packets[:0]
}
