package hytera

import (
	"testing"
)

func TestDecode_HRNPHeader(t *testing.T) {
	pkt, err := Decode(RDACStep0Request)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	hrnp, ok := pkt.(HRNPPacket)
	if !ok {
		t.Fatalf("expected HRNPPacket, got %T", pkt)
	}
	if hrnp.Version != 0x04 {
		t.Errorf("version = 0x%02X, want 0x04", hrnp.Version)
	}
	if hrnp.Opcode != 0xFE {
		t.Errorf("opcode = 0x%02X, want 0xFE", hrnp.Opcode)
	}
	if hrnp.Length != 12 {
		t.Errorf("length = %d, want 12", hrnp.Length)
	}
	if hrnp.Checksum != 0x60E1 {
		t.Errorf("checksum = 0x%04X, want 0x60E1", hrnp.Checksum)
	}
	if len(hrnp.Payload) != 0 {
		t.Errorf("payload length = %d, want 0", len(hrnp.Payload))
	}
}

func TestDecode_HRNPTruncatedDoesNotPanic(t *testing.T) {
	pkt, err := Decode([]byte{0x7E, 0x04, 0x00})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	hrnp := pkt.(HRNPPacket)
	if !hrnp.Truncated {
		t.Error("expected truncated flag for 3-byte HRNP frame")
	}
	if hrnp.Version != 0x04 {
		t.Errorf("version = 0x%02X, want best-effort 0x04", hrnp.Version)
	}
}

func TestDecode_HSTRP(t *testing.T) {
	data := []byte{0x32, 0x42, 0x00, 0x01, 0x12, 0x34, 0xAA, 0xBB}
	pkt, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	hstrp := pkt.(HSTRPPacket)
	if hstrp.Options != 0x01 {
		t.Errorf("options = 0x%02X, want 0x01", hstrp.Options)
	}
	if hstrp.Sequence != 0x1234 {
		t.Errorf("sequence = 0x%04X, want 0x1234", hstrp.Sequence)
	}
	if len(hstrp.Payload) != 2 {
		t.Errorf("payload length = %d, want 2", len(hstrp.Payload))
	}
}

func TestDecode_Heartbeat(t *testing.T) {
	pkt, err := Decode([]byte{0x00})
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if _, ok := pkt.(HeartbeatPacket); !ok {
		t.Fatalf("expected HeartbeatPacket, got %T", pkt)
	}
}

func TestDecode_IPSC(t *testing.T) {
	data := make([]byte, 30)
	data[4] = 0x07
	data[9] = 0x01 // defeat the heartbeat sub-branch
	data[20] = 0x11
	data[21] = 0x11
	pkt, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	ipsc, ok := pkt.(IPSCPacket)
	if !ok {
		t.Fatalf("expected IPSCPacket, got %T", pkt)
	}
	if ipsc.Sequence != 0x07 {
		t.Errorf("sequence = 0x%02X, want 0x07", ipsc.Sequence)
	}
	if ipsc.SlotMarker != 0x1111 {
		t.Errorf("slot marker = 0x%04X, want 0x1111", ipsc.SlotMarker)
	}
}

func TestDecode_HDAPDefault(t *testing.T) {
	data := []byte{0x02, 0x04, 0x00, 0x05, 0x00}
	pkt, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	hdap, ok := pkt.(HDAPPacket)
	if !ok {
		t.Fatalf("expected HDAPPacket, got %T", pkt)
	}
	if hdap.AppType != 0x02 {
		t.Errorf("app type = 0x%02X, want 0x02", hdap.AppType)
	}
	if hdap.Opcode != 0x0400 {
		t.Errorf("opcode = 0x%04X, want 0x0400", hdap.Opcode)
	}
}

func TestDecodeKind_NeverPanicsOnShortInput(t *testing.T) {
	kinds := []Kind{KindHeartbeat, KindHSTRP, KindHRNP, KindRTP, KindIPSC, KindHDAP}
	inputs := [][]byte{nil, {}, {0x01}, {0x01, 0x02}, make([]byte, 5)}
	for _, k := range kinds {
		for _, in := range inputs {
			if _, err := DecodeKind(k, in); err != nil {
				t.Errorf("DecodeKind(%v, % X) returned error: %v", k, in, err)
			}
		}
	}
}
