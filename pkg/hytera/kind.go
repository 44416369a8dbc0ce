// Package hytera implements the Hytera-side wire formats: the datagram
// classifier, the P2P control packet builders, the RDAC handshake constant
// tables and a best-effort decoder for the multiplexed sub-protocols.
package hytera

import (
	"bytes"
	"encoding/binary"
)

// Kind identifies which sub-protocol a raw datagram belongs to
type Kind int

const (
	KindHeartbeat Kind = iota
	KindHSTRP
	KindHRNP
	KindRTP
	KindIPSC
	KindHDAP
)

// String returns the short name of the protocol kind
func (k Kind) String() string {
	switch k {
	case KindHeartbeat:
		return "heartbeat"
	case KindHSTRP:
		return "hstrp"
	case KindHRNP:
		return "hrnp"
	case KindRTP:
		return "rtp"
	case KindIPSC:
		return "ipsc"
	case KindHDAP:
		return "hdap"
	default:
		return "unknown"
	}
}

var (
	hstrpSignature = []byte{0x32, 0x42}
	ipscZZZZ       = []byte("ZZZZ")
	ipscSlotMarker = []byte{0x11, 0x11}
	ipscHeartbeat  = []byte{0x00, 0x00, 0x00, 0x14}
)

// Classify inspects the leading bytes of a raw datagram and decides which
// sub-protocol it carries. Rules are priority ordered; a datagram shorter
// than a rule's slice simply fails that rule and falls through to the next.
func Classify(data []byte) Kind {
	if len(data) < 2 {
		return KindHeartbeat
	}
	if bytes.Equal(data[0:2], hstrpSignature) {
		return KindHSTRP
	}
	if data[0] == 0x7E {
		return KindHRNP
	}
	// Both masks are checked against the same byte on real hardware; the
	// second compares against 0x02 rather than a masked value. Kept exactly
	// as captured - do not simplify without fresh capture data.
	if data[0]&0x80 == 0x80 && data[0]&0xC0 == 0x02 {
		return KindRTP
	}
	if isIPSC(data) {
		if len(data) >= 9 && bytes.Equal(data[5:9], ipscHeartbeat) {
			return KindHeartbeat
		}
		return KindIPSC
	}
	return KindHDAP
}

func isIPSC(data []byte) bool {
	if len(data) >= 8 && binary.LittleEndian.Uint64(data[0:8]) == 0 {
		return true
	}
	if len(data) >= 4 && bytes.Equal(data[0:4], ipscZZZZ) {
		return true
	}
	if len(data) >= 22 && bytes.Equal(data[20:22], ipscSlotMarker) {
		return true
	}
	return false
}
