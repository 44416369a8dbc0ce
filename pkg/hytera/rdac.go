package hytera

import (
	"encoding/binary"
	"strings"
	"unicode/utf16"
)

// RDAC handshake wire constants. Requests are sent verbatim; responses are
// matched as byte prefixes against inbound datagrams. These sequences are
// vendor protocol requirements and must stay bit-exact.
var (
	RDACStep0Request = []byte{
		0x7E, 0x04, 0x00, 0xFE, 0x20, 0x10, 0x00, 0x00, 0x00, 0x0C, 0x60, 0xE1,
	}
	RDACStep0Response = []byte{0x7E, 0x04, 0x00, 0xFD}

	RDACStep1Request = []byte{
		0x7E, 0x04, 0x00, 0x00, 0x20, 0x10, 0x00, 0x01, 0x00, 0x18, 0x9B, 0x60,
		0x02, 0x04, 0x00, 0x05, 0x00, 0x64, 0x00, 0x00, 0x00, 0x01, 0xC4, 0x03,
	}
	RDACStep1Response = []byte{0x7E, 0x04, 0x00, 0x10}
	RDACStep2Response = []byte{0x7E, 0x04, 0x00, 0x00}

	RDACStep3Request = []byte{
		0x7E, 0x04, 0x00, 0x10, 0x20, 0x10, 0x00, 0x01, 0x00, 0x0C, 0x61, 0xCE,
	}
	RDACStep3Response = []byte{0x7E, 0x04, 0x00, 0x00}

	RDACStep4Request1 = []byte{
		0x7E, 0x04, 0x00, 0x10, 0x20, 0x10, 0x00, 0x02, 0x00, 0x0C, 0x61, 0xCD,
	}
	RDACStep4Request2 = []byte{
		0x7E, 0x04, 0x00, 0x00, 0x20, 0x10, 0x00, 0x02, 0x00, 0x19, 0x58, 0xA0,
		0x02, 0xD4, 0x02, 0x06, 0x00, 0x64, 0x00, 0x00, 0x00, 0x02, 0x00, 0xF0,
		0x03,
	}
	RDACStep4Response1 = []byte{0x7E, 0x04, 0x00, 0x10}
	RDACStep4Response2 = []byte{0x7E, 0x04, 0x00, 0x00}

	RDACStep6Request1 = []byte{
		0x7E, 0x04, 0x00, 0x10, 0x20, 0x10, 0x00, 0x03, 0x00, 0x0C, 0x61, 0xCC,
	}
	RDACStep6Request2 = []byte{
		0x7E, 0x04, 0x00, 0x00, 0x20, 0x10, 0x00, 0x03, 0x00, 0x19, 0x73, 0x84,
		0x02, 0xD6, 0x82, 0x06, 0x00, 0x00, 0x64, 0x00, 0x00, 0x00, 0x02, 0x6E,
		0x03,
	}
	RDACStep6Response = []byte{0x7E, 0x04, 0x00, 0x10}

	RDACStep7Request = []byte{
		0x7E, 0x04, 0x00, 0x00, 0x20, 0x10, 0x00, 0x04, 0x00, 0x19, 0x57, 0x9F,
		0x02, 0xD4, 0x02, 0x06, 0x00, 0x64, 0x00, 0x00, 0x00, 0x02, 0x01, 0xEF,
		0x03,
	}
	RDACStep7Response1 = []byte{0x7E, 0x04, 0x00, 0x10}
	RDACStep7Response2 = []byte{0x7E, 0x04, 0x00, 0x00}

	RDACStep10Request = []byte{
		0x7E, 0x04, 0x00, 0x00, 0x20, 0x10, 0x00, 0x15, 0x00, 0x18, 0x9C, 0x4B,
		0x02, 0x05, 0x00, 0x05, 0x00, 0x64, 0x00, 0x00, 0x00, 0x01, 0xC3, 0x03,
	}
	RDACStep10Response1 = []byte{0x7E, 0x04, 0x00, 0x10}
	RDACStep10Response2 = []byte{0x7E, 0x04, 0x00, 0x00}

	RDACStep12Request1 = []byte{
		0x7E, 0x04, 0x00, 0x10, 0x20, 0x10, 0x00, 0x15, 0x00, 0x0C, 0x61, 0xBA,
	}
	RDACStep12Request2 = []byte{
		0x7E, 0x04, 0x00, 0xFB, 0x20, 0x10, 0x00, 0x16, 0x00, 0x0C, 0x60, 0xCE,
	}
	RDACStep12Response = []byte{0x7E, 0x04, 0x00, 0xFA}
)

// RDACKeepaliveReply is sent in answer to a 0x00 "no data" poll once the
// handshake has completed
var RDACKeepaliveReply = []byte{0x41}

// RadioIdentity carries the text fields extracted during the handshake
type RadioIdentity struct {
	Callsign     string
	Firmware     string
	Hardware     string
	SerialNumber string
}

// RadioConfig carries the radio configuration extracted during the handshake
type RadioConfig struct {
	Mode   byte
	TXFreq uint32
	RXFreq uint32
}

// ParseRepeaterID extracts the little-endian 24-bit repeater id from the
// step 2 response payload
func ParseRepeaterID(data []byte) (uint32, bool) {
	if len(data) < 21 {
		return 0, false
	}
	return uint32(data[18]) | uint32(data[19])<<8 | uint32(data[20])<<16, true
}

// ParseRadioIdentity extracts the UTF-16LE identity strings from the step 4
// response payload
func ParseRadioIdentity(data []byte) (RadioIdentity, bool) {
	if len(data) < 216 {
		return RadioIdentity{}, false
	}
	return RadioIdentity{
		Callsign:     decodeUTF16LE(data[88:108]),
		Firmware:     decodeUTF16LE(data[56:88]),
		Hardware:     decodeUTF16LE(data[120:184]),
		SerialNumber: decodeUTF16LE(data[184:216]),
	}, true
}

// ParseRadioConfig extracts mode and frequencies from the step 7 response
// payload
func ParseRadioConfig(data []byte) (RadioConfig, bool) {
	if len(data) < 37 {
		return RadioConfig{}, false
	}
	return RadioConfig{
		Mode:   data[26],
		TXFreq: binary.LittleEndian.Uint32(data[29:33]),
		RXFreq: binary.LittleEndian.Uint32(data[33:37]),
	}, true
}

// decodeUTF16LE converts a little-endian UTF-16 byte slice into a Go string
// with NUL padding removed
func decodeUTF16LE(data []byte) string {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		units = append(units, binary.LittleEndian.Uint16(data[i:i+2]))
	}
	return strings.Trim(string(utf16.Decode(units)), "\x00")
}
