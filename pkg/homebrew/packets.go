package homebrew

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// RPTLPacket is the login request opening the handshake
type RPTLPacket struct {
	RepeaterID uint32
}

// Encode encodes the RPTL packet to raw bytes
func (p *RPTLPacket) Encode() []byte {
	data := make([]byte, RPTLPacketSize)
	copy(data[0:4], PacketTypeRPTL)
	binary.BigEndian.PutUint32(data[4:8], p.RepeaterID)
	return data
}

// RPTKPacket carries the authentication digest
type RPTKPacket struct {
	RepeaterID uint32
	Digest     []byte // 32 bytes
}

// Encode encodes the RPTK packet to raw bytes
func (p *RPTKPacket) Encode() []byte {
	data := make([]byte, RPTKPacketSize)
	copy(data[0:4], PacketTypeRPTK)
	binary.BigEndian.PutUint32(data[4:8], p.RepeaterID)
	copy(data[8:8+ChallengeLength], p.Digest)
	return data
}

// ComputeDigest derives the RPTK digest from the master-provided salt and
// the shared passphrase
func ComputeDigest(salt []byte, passphrase string) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(passphrase))
	return h.Sum(nil)
}

// RPTCPacket is the repeater configuration sent after authentication. All
// fields are fixed-width space-padded ASCII on the wire.
type RPTCPacket struct {
	RepeaterID  uint32
	Callsign    string
	RXFreq      string
	TXFreq      string
	TXPower     string
	ColorCode   string
	Latitude    string
	Longitude   string
	Height      string
	Location    string
	Description string
	Slots       string
	URL         string
	SoftwareID  string
	PackageID   string
}

// Encode encodes the RPTC packet to raw bytes
func (p *RPTCPacket) Encode() []byte {
	data := make([]byte, RPTCPacketSize)
	copy(data[0:4], PacketTypeRPTC)
	binary.BigEndian.PutUint32(data[4:8], p.RepeaterID)

	copyField := func(dst []byte, src string) {
		for i := range dst {
			if i < len(src) {
				dst[i] = src[i]
			} else {
				dst[i] = ' '
			}
		}
	}

	copyField(data[8:16], p.Callsign)
	copyField(data[16:25], p.RXFreq)
	copyField(data[25:34], p.TXFreq)
	copyField(data[34:36], p.TXPower)
	copyField(data[36:38], p.ColorCode)
	copyField(data[38:46], p.Latitude)
	copyField(data[46:55], p.Longitude)
	copyField(data[55:58], p.Height)
	copyField(data[58:78], p.Location)
	copyField(data[78:97], p.Description)
	copyField(data[97:98], p.Slots)
	copyField(data[98:222], p.URL)
	copyField(data[222:262], p.SoftwareID)
	copyField(data[262:302], p.PackageID)

	return data
}

// RPTACKPacket is the master's acknowledgement. The payload after the
// signature carries either the repeater id or a login salt.
type RPTACKPacket struct {
	RepeaterID uint32
	Salt       []byte
}

// ParseRPTACK parses an acknowledgement from the master
func ParseRPTACK(data []byte) (*RPTACKPacket, error) {
	if len(data) < RPTACKPacketSize {
		return nil, fmt.Errorf("invalid RPTACK packet size: %d (expected at least %d)", len(data), RPTACKPacketSize)
	}
	if string(data[0:6]) != PacketTypeRPTACK {
		return nil, fmt.Errorf("invalid RPTACK signature: %s", string(data[0:6]))
	}
	p := &RPTACKPacket{
		RepeaterID: binary.BigEndian.Uint32(data[6:10]),
	}
	p.Salt = make([]byte, 4)
	copy(p.Salt, data[6:10])
	return p, nil
}

// IsMSTNAK reports whether data is a negative acknowledgement
func IsMSTNAK(data []byte) bool {
	return len(data) >= 6 && string(data[0:6]) == PacketTypeMSTNAK
}

// IsMSTCL reports whether data is a close request from the master
func IsMSTCL(data []byte) bool {
	return len(data) >= 5 && string(data[0:5]) == PacketTypeMSTCL
}

// IsMSTPONG reports whether data is a keepalive reply
func IsMSTPONG(data []byte) bool {
	return len(data) >= 7 && string(data[0:7]) == PacketTypeMSTPONG
}

// EncodeRPTPING builds a keepalive packet
func EncodeRPTPING(repeaterID uint32) []byte {
	data := make([]byte, RPTPINGPacketSize)
	copy(data[0:7], PacketTypeRPTPING)
	binary.BigEndian.PutUint32(data[7:11], repeaterID)
	return data
}

// EncodeRPTCL builds a close packet announcing disconnect to the master
func EncodeRPTCL(repeaterID uint32) []byte {
	data := make([]byte, RPTCLPacketSize)
	copy(data[0:5], PacketTypeRPTCL)
	binary.BigEndian.PutUint32(data[5:9], repeaterID)
	return data
}
