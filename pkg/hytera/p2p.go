package hytera

import (
	"bytes"
	"encoding/binary"
)

// P2P command types (byte 20 of a command packet)
const (
	P2PTypeRegistration = 0x10
	P2PTypeDMRStartup   = 0x11
	P2PTypeRDACStartup  = 0x12
)

var (
	p2pCommandPrefix = []byte{0x50, 0x32, 0x50}
	p2pPingPrefix    = []byte{0x0A, 0x00, 0x00, 0x00, 0x14}

	// ConnectionReset is the single-byte datagram that signals a protocol
	// reset to the peer
	ConnectionReset = []byte{0x00}
)

// IsP2PCommand reports whether the datagram starts with the "P2P" marker
func IsP2PCommand(data []byte) bool {
	return len(data) >= 3 && bytes.Equal(data[0:3], p2pCommandPrefix)
}

// IsP2PPing reports whether bytes 4-8 carry the keepalive marker
func IsP2PPing(data []byte) bool {
	return len(data) >= 9 && bytes.Equal(data[4:9], p2pPingPrefix)
}

// P2PCommandType returns the command type byte, or 0 for short packets
func P2PCommandType(data []byte) byte {
	if len(data) > 20 {
		return data[20]
	}
	return 0
}

// KnownP2PType reports whether t is a command type the bridge services
func KnownP2PType(t byte) bool {
	return t == P2PTypeRegistration || t == P2PTypeDMRStartup || t == P2PTypeRDACStartup
}

// BuildRegistrationResponse derives the registration accept packet from the
// inbound request. The request is never modified; nil is returned for
// packets too short to carry the mutated fields.
func BuildRegistrationResponse(data []byte) []byte {
	if len(data) < 16 {
		return nil
	}
	out := make([]byte, len(data), len(data)+1)
	copy(out, data)
	out[3] = 0x50
	out[4]++ // repeater id, wraps per 8-bit arithmetic
	// operation result status code
	out[13] = 0x01
	out[14] = 0x01
	out[15] = 0x5A
	return append(out, 0x01)
}

// BuildStartupAccept derives the RDAC/DMR startup accept packet from the
// inbound request
func BuildStartupAccept(data []byte) []byte {
	if len(data) < 14 {
		return nil
	}
	out := make([]byte, len(data), len(data)+1)
	copy(out, data)
	out[4]++
	out[13] = 0x01
	return append(out, 0x01)
}

// BuildRedirectPacket turns a startup accept packet into the service
// redirect that points the repeater at targetPort
func BuildRedirectPacket(accept []byte, targetPort uint16) []byte {
	if len(accept) < 17 {
		return nil
	}
	// drop the accept status byte appended by BuildStartupAccept
	out := make([]byte, len(accept)-1, len(accept)+3)
	copy(out, accept[:len(accept)-1])
	out[4] = 0x0B
	out[12] = 0xFF
	out[13] = 0xFF
	out[14] = 0x01
	out[15] = 0x00
	out = append(out, 0xFF, 0x01)
	port := make([]byte, 2)
	binary.LittleEndian.PutUint16(port, targetPort)
	return append(out, port...)
}

// BuildPongResponse derives the keepalive echo from an inbound ping
func BuildPongResponse(data []byte) []byte {
	if len(data) < 15 {
		return nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	out[12] = 0xFF
	out[14] = 0x01
	return out
}
