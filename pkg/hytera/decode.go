package hytera

import (
	"encoding/binary"
	"fmt"
)

// Packet is a decoded Hytera datagram. Decoders are best-effort: fields that
// do not fit the datagram are left at their zero value and Truncated is set.
type Packet interface {
	Kind() Kind
}

// HeartbeatPacket is the IPSC keepalive exchanged on idle channels
type HeartbeatPacket struct {
	Raw []byte
}

func (HeartbeatPacket) Kind() Kind { return KindHeartbeat }

// HSTRPPacket is a Simple Transport Reliability Protocol frame
type HSTRPPacket struct {
	Version   byte
	Options   byte
	Sequence  uint16 // present when the options byte carries the SN flag
	Payload   []byte
	Truncated bool
}

func (HSTRPPacket) Kind() Kind { return KindHSTRP }

// hstrpOptionSN flags the presence of the two-byte sequence number
const hstrpOptionSN = 0x01

// HRNPPacket is a Radio Network Protocol frame; the 12-byte header precedes
// an embedded payload (typically HDAP)
type HRNPPacket struct {
	Version      byte
	Block        byte
	Opcode       byte
	Source       byte
	Destination  byte
	PacketNumber uint16
	Length       uint16
	Checksum     uint16
	Payload      []byte
	Truncated    bool
}

func (HRNPPacket) Kind() Kind { return KindHRNP }

// RTPPacket is a Real-Time Transport Protocol header
type RTPPacket struct {
	Version     byte
	Padding     bool
	Marker      bool
	PayloadType byte
	Sequence    uint16
	Timestamp   uint32
	SSRC        uint32
	Payload     []byte
	Truncated   bool
}

func (RTPPacket) Kind() Kind { return KindRTP }

// IPSCPacket is an IP-Site-Connect transport frame
type IPSCPacket struct {
	Sequence   uint8
	SlotMarker uint16 // 0x1111 at offset 20 on live traffic
	Payload    []byte
	Truncated  bool
}

func (IPSCPacket) Kind() Kind { return KindIPSC }

// HDAPPacket is a DMR Application Protocol message
type HDAPPacket struct {
	AppType   byte
	Opcode    uint16
	Payload   []byte
	Truncated bool
}

func (HDAPPacket) Kind() Kind { return KindHDAP }

// Decode classifies data and produces the matching best-effort packet. It
// never panics on short input; the only error case is an empty kind table
// mismatch, which cannot happen for Classify output.
func Decode(data []byte) (Packet, error) {
	return DecodeKind(Classify(data), data)
}

// DecodeKind decodes data as the given protocol kind
func DecodeKind(kind Kind, data []byte) (Packet, error) {
	switch kind {
	case KindHeartbeat:
		raw := make([]byte, len(data))
		copy(raw, data)
		return HeartbeatPacket{Raw: raw}, nil
	case KindHSTRP:
		return decodeHSTRP(data), nil
	case KindHRNP:
		return decodeHRNP(data), nil
	case KindRTP:
		return decodeRTP(data), nil
	case KindIPSC:
		return decodeIPSC(data), nil
	case KindHDAP:
		return decodeHDAP(data), nil
	default:
		return nil, fmt.Errorf("unknown protocol kind %d", kind)
	}
}

func decodeHSTRP(data []byte) HSTRPPacket {
	var p HSTRPPacket
	if len(data) < 4 {
		p.Truncated = true
		return p
	}
	p.Version = data[2]
	p.Options = data[3]
	offset := 4
	if p.Options&hstrpOptionSN != 0 {
		if len(data) < offset+2 {
			p.Truncated = true
			return p
		}
		p.Sequence = binary.BigEndian.Uint16(data[offset : offset+2])
		offset += 2
	}
	p.Payload = data[offset:]
	return p
}

func decodeHRNP(data []byte) HRNPPacket {
	var p HRNPPacket
	if len(data) < 12 {
		p.Truncated = true
		if len(data) > 1 {
			p.Version = data[1]
		}
		return p
	}
	p.Version = data[1]
	p.Block = data[2]
	p.Opcode = data[3]
	p.Source = data[4]
	p.Destination = data[5]
	p.PacketNumber = binary.BigEndian.Uint16(data[6:8])
	p.Length = binary.BigEndian.Uint16(data[8:10])
	p.Checksum = binary.BigEndian.Uint16(data[10:12])
	p.Payload = data[12:]
	return p
}

func decodeRTP(data []byte) RTPPacket {
	var p RTPPacket
	if len(data) < 12 {
		p.Truncated = true
		return p
	}
	p.Version = data[0] >> 6
	p.Padding = data[0]&0x20 != 0
	p.Marker = data[1]&0x80 != 0
	p.PayloadType = data[1] & 0x7F
	p.Sequence = binary.BigEndian.Uint16(data[2:4])
	p.Timestamp = binary.BigEndian.Uint32(data[4:8])
	p.SSRC = binary.BigEndian.Uint32(data[8:12])
	p.Payload = data[12:]
	return p
}

func decodeIPSC(data []byte) IPSCPacket {
	var p IPSCPacket
	if len(data) < 22 {
		p.Truncated = true
		if len(data) > 4 {
			p.Sequence = data[4]
		}
		return p
	}
	p.Sequence = data[4]
	p.SlotMarker = binary.LittleEndian.Uint16(data[20:22])
	p.Payload = data[22:]
	return p
}

func decodeHDAP(data []byte) HDAPPacket {
	var p HDAPPacket
	if len(data) < 3 {
		p.Truncated = true
		if len(data) > 0 {
			p.AppType = data[0]
		}
		return p
	}
	p.AppType = data[0]
	p.Opcode = binary.BigEndian.Uint16(data[1:3])
	p.Payload = data[3:]
	return p
}
