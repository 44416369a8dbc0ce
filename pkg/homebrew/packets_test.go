package homebrew

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestRPTL_Encode(t *testing.T) {
	p := &RPTLPacket{RepeaterID: 312000}
	data := p.Encode()

	if len(data) != RPTLPacketSize {
		t.Fatalf("RPTL size = %d, want %d", len(data), RPTLPacketSize)
	}
	if string(data[0:4]) != PacketTypeRPTL {
		t.Errorf("signature = %q, want RPTL", string(data[0:4]))
	}
	if binary.BigEndian.Uint32(data[4:8]) != 312000 {
		t.Errorf("repeater id = %d, want 312000", binary.BigEndian.Uint32(data[4:8]))
	}
}

func TestRPTK_EncodeWithDigest(t *testing.T) {
	salt := []byte{0x01, 0x02, 0x03, 0x04}
	digest := ComputeDigest(salt, "passw0rd")
	if len(digest) != ChallengeLength {
		t.Fatalf("digest length = %d, want %d", len(digest), ChallengeLength)
	}

	// Same salt and passphrase must produce the same digest
	if !bytes.Equal(digest, ComputeDigest(salt, "passw0rd")) {
		t.Error("digest is not deterministic")
	}
	if bytes.Equal(digest, ComputeDigest(salt, "other")) {
		t.Error("different passphrases must produce different digests")
	}

	p := &RPTKPacket{RepeaterID: 312000, Digest: digest}
	data := p.Encode()
	if len(data) != RPTKPacketSize {
		t.Fatalf("RPTK size = %d, want %d", len(data), RPTKPacketSize)
	}
	if !bytes.Equal(data[8:40], digest) {
		t.Error("digest bytes not copied into packet")
	}
}

func TestRPTC_EncodeFixedWidthFields(t *testing.T) {
	p := &RPTCPacket{
		RepeaterID: 312000,
		Callsign:   "OK0ABC",
		RXFreq:     "431200000",
		TXFreq:     "438800000",
		TXPower:    "10",
		ColorCode:  "1",
		Slots:      "3",
	}
	data := p.Encode()

	if len(data) != RPTCPacketSize {
		t.Fatalf("RPTC size = %d, want %d", len(data), RPTCPacketSize)
	}
	if string(data[8:16]) != "OK0ABC  " {
		t.Errorf("callsign field = %q, want space-padded OK0ABC", string(data[8:16]))
	}
	if string(data[16:25]) != "431200000" {
		t.Errorf("rx freq field = %q", string(data[16:25]))
	}
	if string(data[97:98]) != "3" {
		t.Errorf("slots field = %q, want 3", string(data[97:98]))
	}
}

func TestParseRPTACK(t *testing.T) {
	data := make([]byte, RPTACKPacketSize)
	copy(data[0:6], PacketTypeRPTACK)
	copy(data[6:10], []byte{0xAA, 0xBB, 0xCC, 0xDD})

	p, err := ParseRPTACK(data)
	if err != nil {
		t.Fatalf("ParseRPTACK error: %v", err)
	}
	if !bytes.Equal(p.Salt, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("salt = % X, want AA BB CC DD", p.Salt)
	}

	if _, err := ParseRPTACK([]byte("RPTACK")); err == nil {
		t.Error("expected error for short RPTACK")
	}
	if _, err := ParseRPTACK(make([]byte, RPTACKPacketSize)); err == nil {
		t.Error("expected error for wrong signature")
	}
}

func TestControlPacketPredicates(t *testing.T) {
	if !IsMSTNAK([]byte("MSTNAK\x00\x00\x00\x00")) {
		t.Error("MSTNAK not recognized")
	}
	if !IsMSTCL([]byte("MSTCL\x00\x00\x00\x00")) {
		t.Error("MSTCL not recognized")
	}
	if !IsMSTPONG([]byte("MSTPONG\x00\x00\x00\x00")) {
		t.Error("MSTPONG not recognized")
	}
	if IsMSTNAK([]byte("MST")) || IsMSTCL(nil) || IsMSTPONG([]byte{}) {
		t.Error("short datagrams must not match control packet predicates")
	}
}

func TestEncodeRPTPINGAndRPTCL(t *testing.T) {
	ping := EncodeRPTPING(312000)
	if len(ping) != RPTPINGPacketSize || string(ping[0:7]) != PacketTypeRPTPING {
		t.Errorf("bad RPTPING: % X", ping)
	}
	if binary.BigEndian.Uint32(ping[7:11]) != 312000 {
		t.Error("RPTPING repeater id wrong")
	}

	cl := EncodeRPTCL(312000)
	if len(cl) != RPTCLPacketSize || string(cl[0:5]) != PacketTypeRPTCL {
		t.Errorf("bad RPTCL: % X", cl)
	}
	if binary.BigEndian.Uint32(cl[5:9]) != 312000 {
		t.Error("RPTCL repeater id wrong")
	}
}
