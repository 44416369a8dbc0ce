package bridge

import (
	"sync"
	"testing"

	"github.com/dmrhub/hytera-bridge/pkg/hytera"
)

func TestSession_RegistrationFlag(t *testing.T) {
	s := NewSession(50000, 50002, 50001)

	if s.IsRegistered() {
		t.Fatal("new session must not be registered")
	}

	s.SetRegistered(true)
	if !s.IsRegistered() {
		t.Fatal("expected registered after SetRegistered(true)")
	}

	snap := s.Snapshot()
	if !snap.Registered || snap.RegisteredAt.IsZero() {
		t.Errorf("snapshot registration state wrong: %+v", snap)
	}
}

func TestSession_IdentityAndRadioConfig(t *testing.T) {
	s := NewSession(50000, 50002, 50001)

	s.SetRepeaterID(1234)
	s.SetIdentity(hytera.RadioIdentity{
		Callsign:     "OK0ABC",
		Firmware:     "A9.01",
		Hardware:     "RD985",
		SerialNumber: "SN1",
	})
	s.SetRadioConfig(hytera.RadioConfig{Mode: 2, TXFreq: 438800000, RXFreq: 431200000})

	snap := s.Snapshot()
	if snap.RepeaterID != 1234 {
		t.Errorf("repeater id = %d, want 1234", snap.RepeaterID)
	}
	if snap.Callsign != "OK0ABC" || snap.Hardware != "RD985" {
		t.Errorf("identity wrong: %+v", snap)
	}
	if snap.RepeaterMode != 2 || snap.TXFreq != 438800000 || snap.RXFreq != 431200000 {
		t.Errorf("radio config wrong: %+v", snap)
	}
}

func TestSession_Ports(t *testing.T) {
	s := NewSession(50000, 50002, 50001)
	if s.P2PPort() != 50000 || s.RDACPort() != 50002 || s.DMRPort() != 50001 {
		t.Errorf("ports = %d/%d/%d", s.P2PPort(), s.RDACPort(), s.DMRPort())
	}
}

func TestSession_TrafficCounters(t *testing.T) {
	s := NewSession(50000, 50002, 50001)

	s.RecordInbound(EndpointP2P, 24)
	s.RecordInbound(EndpointP2P, 24)
	s.RecordOutbound(EndpointP2P, 25)
	s.RecordInbound(EndpointDMR, 100)

	rx, rxB, tx, txB := s.Stats(EndpointP2P)
	if rx != 2 || rxB != 48 || tx != 1 || txB != 25 {
		t.Errorf("p2p stats = %d/%d/%d/%d", rx, rxB, tx, txB)
	}

	rx, rxB, _, _ = s.Stats(EndpointDMR)
	if rx != 1 || rxB != 100 {
		t.Errorf("dmr stats = %d/%d", rx, rxB)
	}

	if s.Snapshot().LastHeard.IsZero() {
		t.Error("expected last heard to be updated by inbound traffic")
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := NewSession(50000, 50002, 50001)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.RecordInbound(EndpointRDAC, 12)
				s.SetRegistered(true)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Snapshot()
				_ = s.IsRegistered()
			}
		}()
	}
	wg.Wait()

	rx, _, _, _ := s.Stats(EndpointRDAC)
	if rx != 800 {
		t.Errorf("rdac packets received = %d, want 800", rx)
	}
}

func TestEndpoint_String(t *testing.T) {
	if EndpointP2P.String() != "p2p" || EndpointRDAC.String() != "rdac" || EndpointDMR.String() != "dmr" {
		t.Error("endpoint names wrong")
	}
}
